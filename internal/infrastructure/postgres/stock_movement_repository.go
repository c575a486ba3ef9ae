package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo kardex sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append asigna Seq = último + 1 del producto. El llamador ya tiene la fila del producto
// bloqueada; el UNIQUE (product_id, seq) cubre cualquier otro caso.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, seq, kind, reason, quantity, stock_before, stock_after, reference_id, created_at, created_by)
		SELECT $1, $2, COALESCE(MAX(seq), 0) + 1, $3, $4, $5, $6, $7, $8, $9, $10
		FROM stock_movements WHERE product_id = $2
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.Kind, m.Reason, m.Quantity, m.StockBefore, m.StockAfter,
		nullString(m.ReferenceID), m.CreatedAt, nullString(m.CreatedBy),
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: secuencia de kardex", domain.ErrVersionConflict)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// ListByProduct movimientos en orden ascendente de Seq.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, seq, kind, reason, quantity, stock_before, stock_after, reference_id, created_at, created_by
		FROM stock_movements WHERE product_id = $1
		ORDER BY seq ASC LIMIT NULLIF($2::int, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var ref, createdBy *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Seq, &m.Kind, &m.Reason, &m.Quantity,
			&m.StockBefore, &m.StockAfter, &ref, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.ReferenceID = derefString(ref)
		m.CreatedBy = derefString(createdBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}
