package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia de notas de crédito.
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.ReturnDocument) error
	GetByID(ctx context.Context, id string) (*entity.ReturnDocument, error)
	ListBySale(ctx context.Context, saleID string) ([]*entity.ReturnDocument, error)
	// ReturnedQuantities devuelve la cantidad ya devuelta por línea de venta (sale_line_id → cantidad).
	ReturnedQuantities(ctx context.Context, saleID string) (map[string]int64, error)
	UpdateFiscal(ctx context.Context, id string, expected entity.FiscalStatus, state entity.FiscalState) error
	ListByFiscalStatus(ctx context.Context, status entity.FiscalStatus, before time.Time, limit int) ([]*entity.ReturnDocument, error)
}
