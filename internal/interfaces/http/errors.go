package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-fiscal-api/internal/application/audit"
	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: ErrInconsistentState envuelve además la causa (p. ej. ErrVersionConflict)
// y un envío agotado envuelve ErrGatewayRejected junto a la causa del último intento.
var errorTable = []errorMapping{
	{domain.ErrInconsistentState, fiber.StatusInternalServerError, "INCONSISTENT_STATE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrProductInactive, fiber.StatusConflict, "PRODUCT_INACTIVE"},
	{domain.ErrCumulativeReturnExceeded, fiber.StatusConflict, "RETURN_EXCEEDED"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrVersionConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrAllocationContention, fiber.StatusServiceUnavailable, "NUMBERING_CONTENTION"},
	{domain.ErrGatewayRejected, fiber.StatusUnprocessableEntity, "FISCAL_REJECTED"},
	{domain.ErrGatewayTimeout, fiber.StatusGatewayTimeout, "FISCAL_TIMEOUT"},
	{domain.ErrGatewayUnavailable, fiber.StatusServiceUnavailable, "FISCAL_UNAVAILABLE"},
}

// classify traduce un error de dominio a status HTTP y código.
func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// respondError escribe dto.ErrorResponse con el status del error.
func respondError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError && code == "INTERNAL" {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// requestContext contexto de la petición con el operador para auditoría.
func requestContext(c *fiber.Ctx) context.Context {
	return audit.WithActor(c.UserContext(), GetUserID(c))
}
