package repository

import (
	"context"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// FiscalResultCache guarda el resultado aceptado por la pasarela, con clave (tipo, serie, número).
// Evita volver a enviar (y cobrar) un documento que la autoridad ya aceptó.
type FiscalResultCache interface {
	// Get devuelve nil, nil si no hay resultado guardado.
	Get(ctx context.Context, key string) (*entity.FiscalState, error)
	Put(ctx context.Context, key string, state entity.FiscalState) error
}
