package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/swaggo/swag"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/application/numbering"
	"github.com/jhoicas/pos-fiscal-api/internal/application/returns"
	"github.com/jhoicas/pos-fiscal-api/internal/application/sales"
	"github.com/jhoicas/pos-fiscal-api/internal/application/usecase"
	"github.com/jhoicas/pos-fiscal-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sales       *sales.Processor
	Returns     *returns.Processor
	Ledger      *inventory.Ledger
	Allocator   *numbering.Allocator
	Products    *usecase.ProductUseCase
	Fiscal      FiscalService
	Receipts    ReceiptRenderer // nil = sin descarga de PDF
	SalesPolicy sales.Policy
	JWTSecret   string
	// Health verifica dependencias (DB, caché). nil = siempre sano.
	Health func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.Health))
	app.Get("/docs/doc.json", docsHandler)

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	supervisor := RequireRole(jwt.RoleSupervisor)
	anyRole := RequireRole(jwt.RoleCashier, jwt.RoleSupervisor)

	// Sales
	saleHandler := NewSaleHandler(deps.Sales, deps.Fiscal, deps.SalesPolicy)
	returnHandler := NewReturnHandler(deps.Returns, deps.Fiscal)
	salesGroup := protected.Group("/sales", anyRole)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/returns", returnHandler.ListBySale)
	salesGroup.Get("/:id/fiscal/attempts", saleHandler.Attempts)
	salesGroup.Post("/:id/void", supervisor, saleHandler.Void)
	salesGroup.Post("/:id/fiscal/resubmit", supervisor, saleHandler.Resubmit)

	// Returns (notas de crédito)
	returnsGroup := protected.Group("/returns", anyRole)
	returnsGroup.Post("/", returnHandler.Create)
	returnsGroup.Get("/:id", returnHandler.GetByID)
	returnsGroup.Get("/:id/fiscal/attempts", returnHandler.Attempts)
	returnsGroup.Post("/:id/fiscal/resubmit", supervisor, returnHandler.Resubmit)

	// Representación impresa
	if deps.Receipts != nil {
		receiptHandler := NewReceiptHandler(deps.Sales, deps.Returns, deps.Receipts)
		salesGroup.Get("/:id/pdf", receiptHandler.Sale)
		returnsGroup.Get("/:id/pdf", receiptHandler.Return)
	}

	// Inventory
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	invGroup := protected.Group("/inventory", anyRole)
	invGroup.Post("/adjustments", supervisor, inventoryHandler.Adjust)
	invGroup.Get("/products/:id/stock", inventoryHandler.Stock)
	invGroup.Get("/products/:id/movements", inventoryHandler.Movements)
	invGroup.Get("/products/:id/reconcile", inventoryHandler.Reconcile)

	// Products
	productHandler := NewProductHandler(deps.Products)
	products := protected.Group("/products", anyRole)
	products.Post("/", supervisor, productHandler.Create)
	products.Get("/:id", productHandler.GetByID)

	// Series
	seriesHandler := NewSeriesHandler(deps.Allocator)
	protected.Get("/series/:code/:series", anyRole, seriesHandler.Peek)
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			if err := check(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNHEALTHY", Message: err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// docsHandler sirve el documento OpenAPI registrado por el paquete docs.
func docsHandler(c *fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "documentación no registrada"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}
