package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/application/sales"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// SaleHandler maneja emisión, consulta y anulación de comprobantes (protegido).
type SaleHandler struct {
	processor *sales.Processor
	fiscal    FiscalService
	policy    sales.Policy
}

// NewSaleHandler construye el handler. policy se aplica a cada venta emitida.
func NewSaleHandler(processor *sales.Processor, fiscal FiscalService, policy sales.Policy) *SaleHandler {
	return &SaleHandler{processor: processor, fiscal: fiscal, policy: policy}
}

// Create godoc
// @Summary      Emitir comprobante de venta
// @Description  Bloquea productos, valida stock, asigna correlativo y registra salidas de kardex
//
//	en una sola transacción. El envío a la pasarela fiscal es asíncrono.
//
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "document_type, series, customer, lines"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	due, err := in.ParseDueDate()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "due_date debe ser YYYY-MM-DD"})
	}
	lines := make([]sales.SaleLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, sales.SaleLineInput{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Description: l.Description,
		})
	}
	sale, err := h.processor.IssueSale(requestContext(c), sales.IssueSaleInput{
		DocumentType: in.DocumentType,
		Series:       in.Series,
		Customer:     dto.CustomerFromDTO(in.Customer),
		Lines:        lines,
		Currency:     in.Currency,
		DueDate:      due,
		CreatedBy:    GetUserID(c),
		Policy:       h.policy,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SaleFromEntity(sale))
}

// GetByID godoc
// @Summary      Obtener comprobante por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.processor.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SaleFromEntity(sale))
}

// Void godoc
// @Summary      Anular comprobante
// @Description  Solo comprobantes no enviados o rechazados; los aceptados se revierten con nota de crédito.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del comprobante"
// @Param        body  body  dto.VoidSaleRequest  true  "reason"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/void [post]
func (h *SaleHandler) Void(c *fiber.Ctx) error {
	var in dto.VoidSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sale, err := h.processor.VoidSale(requestContext(c), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SaleFromEntity(sale))
}

// Resubmit godoc
// @Summary      Reenviar comprobante a la pasarela fiscal
// @Description  Reintento manual. Un documento aceptado no se reenvía; devuelve su estado.
// @Tags         fiscal
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {object}  dto.FiscalStateDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.FiscalErrorResponse
// @Failure      504  {object}  dto.FiscalErrorResponse
// @Router       /api/sales/{id}/fiscal/resubmit [post]
func (h *SaleHandler) Resubmit(c *fiber.Ctx) error {
	return resubmit(c, h.fiscal, entity.DocumentRef{Kind: entity.DocumentKindSale, ID: c.Params("id")})
}

// Attempts godoc
// @Summary      Historial de envíos fiscales del comprobante
// @Tags         fiscal
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {array}   dto.FiscalAttemptDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/fiscal/attempts [get]
func (h *SaleHandler) Attempts(c *fiber.Ctx) error {
	return attempts(c, h.fiscal, entity.DocumentRef{Kind: entity.DocumentKindSale, ID: c.Params("id")})
}
