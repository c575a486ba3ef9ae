package sales

import (
	"context"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// NumberAllocator entrega el siguiente correlativo de una serie (confirmado de inmediato)
// y registra los números consumidos sin documento.
type NumberAllocator interface {
	NextNumber(ctx context.Context, documentCode, series string) (int64, error)
	Burn(ctx context.Context, documentCode, series string, number int64, cause error)
}

// FiscalEnqueuer encola un documento ya confirmado para su envío a la pasarela.
// Un error al encolar nunca revierte la venta: el barrido periódico lo recupera.
type FiscalEnqueuer interface {
	Enqueue(ref entity.DocumentRef) error
}
