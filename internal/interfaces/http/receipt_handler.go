package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-fiscal-api/internal/application/returns"
	"github.com/jhoicas/pos-fiscal-api/internal/application/sales"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// ReceiptRenderer genera la representación impresa (PDF).
type ReceiptRenderer interface {
	SaleReceipt(ctx context.Context, sale *entity.SaleDocument) ([]byte, error)
	ReturnReceipt(ctx context.Context, ret *entity.ReturnDocument) ([]byte, error)
}

// ReceiptHandler descarga de PDFs.
type ReceiptHandler struct {
	sales    *sales.Processor
	returns  *returns.Processor
	renderer ReceiptRenderer
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(s *sales.Processor, r *returns.Processor, renderer ReceiptRenderer) *ReceiptHandler {
	return &ReceiptHandler{sales: s, returns: r, renderer: renderer}
}

// Sale godoc
// @Summary      Representación impresa del comprobante (PDF)
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/pdf [get]
func (h *ReceiptHandler) Sale(c *fiber.Ctx) error {
	sale, err := h.sales.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	pdf, err := h.renderer.SaleReceipt(c.UserContext(), sale)
	if err != nil {
		return respondError(c, err)
	}
	return sendPDF(c, sale.FullNumber(), pdf)
}

// Return godoc
// @Summary      Representación impresa de la nota de crédito (PDF)
// @Tags         returns
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la nota de crédito"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/pdf [get]
func (h *ReceiptHandler) Return(c *fiber.Ctx) error {
	ret, err := h.returns.GetReturn(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	pdf, err := h.renderer.ReturnReceipt(c.UserContext(), ret)
	if err != nil {
		return respondError(c, err)
	}
	return sendPDF(c, ret.FullNumber(), pdf)
}

func sendPDF(c *fiber.Ctx, name string, pdf []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, name))
	return c.Send(pdf)
}
