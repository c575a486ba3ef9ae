package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

var (
	_ repository.SeriesCounterRepository = (*SeriesCounterRepo)(nil)
	_ repository.BurnedNumberRepository  = (*BurnedNumberRepo)(nil)
)

// SeriesCounterRepo contadores de serie. Se usa siempre sobre el pool: cada CAS confirma solo.
type SeriesCounterRepo struct {
	q Querier
}

// NewSeriesCounterRepository construye el adaptador.
func NewSeriesCounterRepository(q Querier) *SeriesCounterRepo {
	return &SeriesCounterRepo{q: q}
}

func (r *SeriesCounterRepo) Get(ctx context.Context, code, series string) (*entity.SeriesCounter, error) {
	var c entity.SeriesCounter
	err := r.q.QueryRow(ctx,
		`SELECT document_code, series, last_number, version, updated_at
		 FROM series_counters WHERE document_code = $1 AND series = $2`,
		code, series,
	).Scan(&c.DocumentCode, &c.Series, &c.LastNumber, &c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get series counter: %w", err)
	}
	return &c, nil
}

func (r *SeriesCounterRepo) EnsureExists(ctx context.Context, code, series string) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO series_counters (document_code, series, last_number, version, updated_at)
		 VALUES ($1, $2, 0, 0, now())
		 ON CONFLICT (document_code, series) DO NOTHING`,
		code, series,
	)
	if err != nil {
		return fmt.Errorf("ensure series counter: %w", err)
	}
	return nil
}

// CompareAndSwap UPDATE condicional sobre last_number; 0 filas = otro llamador ganó.
func (r *SeriesCounterRepo) CompareAndSwap(ctx context.Context, code, series string, expected, next int64) (bool, error) {
	cmd, err := r.q.Exec(ctx,
		`UPDATE series_counters SET last_number = $4, version = version + 1, updated_at = now()
		 WHERE document_code = $1 AND series = $2 AND last_number = $3`,
		code, series, expected, next,
	)
	if err != nil {
		return false, fmt.Errorf("cas series counter: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// BurnedNumberRepo registro de correlativos quemados.
type BurnedNumberRepo struct {
	q Querier
}

// NewBurnedNumberRepository construye el adaptador.
func NewBurnedNumberRepository(q Querier) *BurnedNumberRepo {
	return &BurnedNumberRepo{q: q}
}

func (r *BurnedNumberRepo) Record(ctx context.Context, b *entity.BurnedNumber) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO burned_numbers (document_code, series, number, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (document_code, series, number) DO NOTHING`,
		b.DocumentCode, b.Series, b.Number, b.Reason, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record burned number: %w", err)
	}
	return nil
}

func (r *BurnedNumberRepo) ListBySeries(ctx context.Context, code, series string) ([]*entity.BurnedNumber, error) {
	rows, err := r.q.Query(ctx,
		`SELECT document_code, series, number, reason, created_at
		 FROM burned_numbers WHERE document_code = $1 AND series = $2 ORDER BY number`,
		code, series,
	)
	if err != nil {
		return nil, fmt.Errorf("list burned numbers: %w", err)
	}
	defer rows.Close()
	var list []*entity.BurnedNumber
	for rows.Next() {
		var b entity.BurnedNumber
		if err := rows.Scan(&b.DocumentCode, &b.Series, &b.Number, &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan burned number: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
