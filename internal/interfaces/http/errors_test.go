package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"validación":     {fmt.Errorf("%w: serie requerida", domain.ErrInvalidInput), fiber.StatusBadRequest, "VALIDATION"},
		"stock":          {domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
		"devolución":     {domain.ErrCumulativeReturnExceeded, fiber.StatusConflict, "RETURN_EXCEEDED"},
		"contención":     {domain.ErrAllocationContention, fiber.StatusServiceUnavailable, "NUMBERING_CONTENTION"},
		"rechazo fiscal": {fmt.Errorf("%w: %w", domain.ErrGatewayRejected, domain.ErrGatewayTimeout), fiber.StatusUnprocessableEntity, "FISCAL_REJECTED"},
		"timeout fiscal": {domain.ErrGatewayTimeout, fiber.StatusGatewayTimeout, "FISCAL_TIMEOUT"},
		"desconocido":    {errors.New("disco lleno"), fiber.StatusInternalServerError, "INTERNAL"},
		"inconsistente":  {fmt.Errorf("%w: 03 B001-7: %w", domain.ErrInconsistentState, domain.ErrVersionConflict), fiber.StatusInternalServerError, "INCONSISTENT_STATE"},
		"versión vieja":  {domain.ErrVersionConflict, fiber.StatusConflict, "CONFLICT"},
		"no encontrado":  {fmt.Errorf("venta x: %w", domain.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			status, code := classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}
