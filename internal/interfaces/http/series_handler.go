package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/application/numbering"
)

// SeriesHandler consulta contadores de correlativos (solo lectura).
type SeriesHandler struct {
	allocator *numbering.Allocator
}

// NewSeriesHandler construye el handler.
func NewSeriesHandler(allocator *numbering.Allocator) *SeriesHandler {
	return &SeriesHandler{allocator: allocator}
}

// Peek godoc
// @Summary      Estado de una serie
// @Description  Último correlativo asignado y correlativos quemados. No consume números.
// @Tags         series
// @Security     Bearer
// @Produce      json
// @Param        code    path  string  true  "Tipo de documento (01, 03, 07)"
// @Param        series  path  string  true  "Serie (ej: B001)"
// @Success      200  {object}  dto.SeriesCounterDTO
// @Router       /api/series/{code}/{series} [get]
func (h *SeriesHandler) Peek(c *fiber.Ctx) error {
	code := c.Params("code")
	series := strings.ToUpper(c.Params("series"))
	counter, err := h.allocator.Peek(c.UserContext(), code, series)
	if err != nil {
		return respondError(c, err)
	}
	burned, err := h.allocator.Burned(c.UserContext(), code, series)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SeriesCounterFromEntity(counter, burned))
}
