package repository

import (
	"context"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// StockMovementRepository puerto del kardex. Append-only: no hay Update ni Delete.
type StockMovementRepository interface {
	// Append asigna ID y Seq (siguiente por producto) y persiste el movimiento.
	Append(ctx context.Context, movement *entity.StockMovement) error
	// ListByProduct devuelve los movimientos en orden ascendente de Seq. limit <= 0 = todos.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
}
