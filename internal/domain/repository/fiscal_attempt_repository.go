package repository

import (
	"context"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// FiscalAttemptRepository guarda el historial de intentos de envío a la pasarela.
type FiscalAttemptRepository interface {
	Create(ctx context.Context, attempt *entity.FiscalAttempt) error
	ListByDocument(ctx context.Context, kind entity.DocumentKind, documentID string) ([]*entity.FiscalAttempt, error)
}
