package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// FiscalService lo implementa *fiscal.Gateway.
type FiscalService interface {
	Resubmit(ctx context.Context, ref entity.DocumentRef) (*entity.FiscalState, error)
	Attempts(ctx context.Context, ref entity.DocumentRef) ([]*entity.FiscalAttempt, error)
}

// resubmit compartido por ventas y devoluciones. Si la pasarela resolvió con error
// el cuerpo incluye el estado fiscal resultante.
func resubmit(c *fiber.Ctx, svc FiscalService, ref entity.DocumentRef) error {
	st, err := svc.Resubmit(requestContext(c), ref)
	if err != nil {
		if st == nil {
			return respondError(c, err)
		}
		status, code := classify(err)
		return c.Status(status).JSON(dto.FiscalErrorResponse{
			Code:    code,
			Message: err.Error(),
			Fiscal:  dto.FiscalStateFromEntity(*st),
		})
	}
	return c.JSON(dto.FiscalStateFromEntity(*st))
}

func attempts(c *fiber.Ctx, svc FiscalService, ref entity.DocumentRef) error {
	list, err := svc.Attempts(c.UserContext(), ref)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FiscalAttemptsFromEntity(list))
}
