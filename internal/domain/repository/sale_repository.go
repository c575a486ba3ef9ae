package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia del comprobante de venta (raíz + líneas).
type SaleRepository interface {
	// Create persiste cabecera y líneas; falla con domain.ErrDuplicate si (tipo, serie, número) ya existe.
	Create(ctx context.Context, sale *entity.SaleDocument) error
	// GetByID devuelve la venta con sus líneas; nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.SaleDocument, error)
	// GetForUpdate bloquea la cabecera (serializa devoluciones y anulaciones concurrentes).
	GetForUpdate(ctx context.Context, id string) (*entity.SaleDocument, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// UpdateFiscal reemplaza el subestado fiscal solo si el estado actual es expected
	// y la versión guardada es state.Version (la leída); al escribir la versión sube en uno.
	// Devuelve domain.ErrConflict si otro proceso lo cambió antes.
	UpdateFiscal(ctx context.Context, id string, expected entity.FiscalStatus, state entity.FiscalState) error
	// ListByFiscalStatus lista ventas en un estado fiscal actualizadas antes de before.
	ListByFiscalStatus(ctx context.Context, status entity.FiscalStatus, before time.Time, limit int) ([]*entity.SaleDocument, error)
}
