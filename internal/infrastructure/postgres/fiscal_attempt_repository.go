package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

var _ repository.FiscalAttemptRepository = (*FiscalAttemptRepo)(nil)

// FiscalAttemptRepo historial de intentos de envío.
type FiscalAttemptRepo struct {
	q Querier
}

// NewFiscalAttemptRepository construye el adaptador.
func NewFiscalAttemptRepository(q Querier) *FiscalAttemptRepo {
	return &FiscalAttemptRepo{q: q}
}

func (r *FiscalAttemptRepo) Create(ctx context.Context, a *entity.FiscalAttempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO fiscal_attempts (id, document_kind, document_id, number, started_at, finished_at, outcome, http_status, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, string(a.DocumentKind), a.DocumentID, a.Number, a.StartedAt, a.FinishedAt, a.Outcome, a.HTTPStatus, a.Error,
	)
	if err != nil {
		return fmt.Errorf("insert fiscal attempt: %w", err)
	}
	return nil
}

func (r *FiscalAttemptRepo) ListByDocument(ctx context.Context, kind entity.DocumentKind, documentID string) ([]*entity.FiscalAttempt, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, document_kind, document_id, number, started_at, finished_at, outcome, http_status, error
		 FROM fiscal_attempts WHERE document_kind = $1 AND document_id = $2 ORDER BY started_at, number`,
		string(kind), documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list fiscal attempts: %w", err)
	}
	defer rows.Close()
	var list []*entity.FiscalAttempt
	for rows.Next() {
		var a entity.FiscalAttempt
		var k string
		if err := rows.Scan(&a.ID, &k, &a.DocumentID, &a.Number, &a.StartedAt, &a.FinishedAt, &a.Outcome, &a.HTTPStatus, &a.Error); err != nil {
			return nil, fmt.Errorf("scan fiscal attempt: %w", err)
		}
		a.DocumentKind = entity.DocumentKind(k)
		list = append(list, &a)
	}
	return list, rows.Err()
}
