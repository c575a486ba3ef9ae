package repository

import (
	"context"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
// El CRUD de productos vive fuera de este servicio; aquí solo se lee y se actualiza el stock cacheado.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// UpdateStock fija current_stock si la versión coincide e incrementa la versión.
	// Devuelve domain.ErrVersionConflict si la fila cambió.
	UpdateStock(ctx context.Context, id string, expectedVersion, newStock int64) error
}
