package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/application/returns"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// ReturnHandler maneja notas de crédito (protegido).
type ReturnHandler struct {
	processor *returns.Processor
	fiscal    FiscalService
}

// NewReturnHandler construye el handler.
func NewReturnHandler(processor *returns.Processor, fiscal FiscalService) *ReturnHandler {
	return &ReturnHandler{processor: processor, fiscal: fiscal}
}

// Create godoc
// @Summary      Emitir nota de crédito
// @Description  Valida lo devuelto por línea contra lo vendido; con INVENTORY_RETURN reingresa stock.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReturnRequest  true  "sale_id, series, refund_method, lines"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]returns.ReturnLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, returns.ReturnLineInput{SaleLineID: l.SaleLineID, Quantity: l.Quantity})
	}
	ret, err := h.processor.IssueReturn(requestContext(c), returns.IssueReturnInput{
		SaleID:       in.SaleID,
		Series:       in.Series,
		ReasonCode:   in.ReasonCode,
		Reason:       in.Reason,
		RefundMethod: in.RefundMethod,
		Lines:        lines,
		CreatedBy:    GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReturnFromEntity(ret))
}

// GetByID godoc
// @Summary      Obtener nota de crédito por ID
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la nota de crédito"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	ret, err := h.processor.GetReturn(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReturnFromEntity(ret))
}

// ListBySale godoc
// @Summary      Notas de crédito de un comprobante
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del comprobante de venta"
// @Success      200  {array}   dto.ReturnResponse
// @Router       /api/sales/{id}/returns [get]
func (h *ReturnHandler) ListBySale(c *fiber.Ctx) error {
	list, err := h.processor.ListBySale(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ReturnResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.ReturnFromEntity(r))
	}
	return c.JSON(out)
}

// Resubmit godoc
// @Summary      Reenviar nota de crédito a la pasarela fiscal
// @Tags         fiscal
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la nota de crédito"
// @Success      200  {object}  dto.FiscalStateDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.FiscalErrorResponse
// @Router       /api/returns/{id}/fiscal/resubmit [post]
func (h *ReturnHandler) Resubmit(c *fiber.Ctx) error {
	return resubmit(c, h.fiscal, entity.DocumentRef{Kind: entity.DocumentKindReturn, ID: c.Params("id")})
}

// Attempts godoc
// @Summary      Historial de envíos fiscales de la nota de crédito
// @Tags         fiscal
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la nota de crédito"
// @Success      200  {array}   dto.FiscalAttemptDTO
// @Router       /api/returns/{id}/fiscal/attempts [get]
func (h *ReturnHandler) Attempts(c *fiber.Ctx) error {
	return attempts(c, h.fiscal, entity.DocumentRef{Kind: entity.DocumentKindReturn, ID: c.Params("id")})
}
