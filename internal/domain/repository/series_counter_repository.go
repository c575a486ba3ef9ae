package repository

import (
	"context"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// SeriesCounterRepository define el puerto de persistencia de los contadores de serie.
// Solo el asignador de correlativos escribe en él.
type SeriesCounterRepository interface {
	// Get devuelve nil, nil si la serie aún no existe.
	Get(ctx context.Context, documentCode, series string) (*entity.SeriesCounter, error)
	// EnsureExists crea el contador en 0 si no existe (idempotente).
	EnsureExists(ctx context.Context, documentCode, series string) error
	// CompareAndSwap escribe next solo si last_number sigue siendo expected.
	// Devuelve false (sin error) cuando otro llamador ganó la carrera.
	CompareAndSwap(ctx context.Context, documentCode, series string, expected, next int64) (bool, error)
}

// BurnedNumberRepository registra correlativos consumidos sin documento.
type BurnedNumberRepository interface {
	Record(ctx context.Context, b *entity.BurnedNumber) error
	ListBySeries(ctx context.Context, documentCode, series string) ([]*entity.BurnedNumber, error)
}
