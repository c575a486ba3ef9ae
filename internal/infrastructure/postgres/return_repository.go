package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

const returnColumns = `id, sale_id, sale_document_type, sale_series, sale_number, document_type, series, number,
	issue_date, currency, reason_code, reason, refund_method,
	customer_doc_type, customer_doc_number, customer_name, customer_address,
	tax_rate, taxable_base, tax_amount, grand_total, ` + fiscalColumns + `,
	created_by, created_at, updated_at`

const returnLineColumns = `id, return_id, sale_line_id, product_id, description, unit_measure, quantity,
	unit_price, unit_price_with_tax, subtotal, tax_rate, tax_affectation_code`

// ReturnRepo notas de crédito sobre PostgreSQL.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

func (r *ReturnRepo) Create(ctx context.Context, ret *entity.ReturnDocument) error {
	batch := &pgx.Batch{}
	args := []any{
		ret.ID, ret.SaleID, ret.SaleDocumentType, ret.SaleSeries, ret.SaleNumber, ret.DocumentType, ret.Series, ret.Number,
		ret.IssueDate, ret.Currency, ret.ReasonCode, ret.Reason, ret.RefundMethod,
		ret.Customer.DocType, ret.Customer.DocNumber, ret.Customer.Name, ret.Customer.Address,
		ret.TaxRate, ret.TaxableBase, ret.TaxAmount, ret.GrandTotal,
	}
	args = append(args, fiscalArgs(ret.Fiscal)...)
	args = append(args, ret.CreatedBy, ret.CreatedAt, ret.UpdatedAt)
	batch.Queue(`INSERT INTO returns (`+returnColumns+`) VALUES (`+placeholders(len(args))+`)`, args...)

	for i := range ret.Lines {
		l := &ret.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.ReturnID = ret.ID
		batch.Queue(`INSERT INTO return_lines (`+returnLineColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			l.ID, l.ReturnID, l.SaleLineID, l.ProductID, l.Description, l.UnitMeasure, l.Quantity,
			l.UnitPrice, l.UnitPriceWithTax, l.Subtotal, l.TaxRate, l.TaxAffectationCode,
		)
	}

	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			if isForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("insert return: %w", err)
		}
	}
	return br.Close()
}

func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.ReturnDocument, error) {
	ret, err := scanReturn(r.q.QueryRow(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return: %w", err)
	}
	if ret.Lines, err = r.lines(ctx, ret.ID); err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *ReturnRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.ReturnDocument, error) {
	list, err := r.list(ctx, `SELECT `+returnColumns+` FROM returns WHERE sale_id = $1 ORDER BY created_at`, saleID)
	if err != nil {
		return nil, err
	}
	for _, ret := range list {
		if ret.Lines, err = r.lines(ctx, ret.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ReturnedQuantities suma por línea de venta lo ya devuelto.
func (r *ReturnRepo) ReturnedQuantities(ctx context.Context, saleID string) (map[string]int64, error) {
	rows, err := r.q.Query(ctx,
		`SELECT rl.sale_line_id, SUM(rl.quantity)::bigint
		 FROM return_lines rl JOIN returns ret ON ret.id = rl.return_id
		 WHERE ret.sale_id = $1
		 GROUP BY rl.sale_line_id`,
		saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("returned quantities: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var lineID string
		var qty int64
		if err := rows.Scan(&lineID, &qty); err != nil {
			return nil, fmt.Errorf("scan returned quantity: %w", err)
		}
		out[lineID] = qty
	}
	return out, rows.Err()
}

func (r *ReturnRepo) UpdateFiscal(ctx context.Context, id string, expected entity.FiscalStatus, st entity.FiscalState) error {
	args := append([]any{id, string(expected)}, fiscalArgs(st)...)
	cmd, err := r.q.Exec(ctx, `UPDATE returns SET `+fiscalSet+fiscalCAS, args...)
	if err != nil {
		return fmt.Errorf("update return fiscal: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM returns WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check return: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *ReturnRepo) ListByFiscalStatus(ctx context.Context, status entity.FiscalStatus, before time.Time, limit int) ([]*entity.ReturnDocument, error) {
	return r.list(ctx,
		`SELECT `+returnColumns+` FROM returns
		 WHERE fiscal_status = $1 AND updated_at < $2
		 ORDER BY created_at LIMIT NULLIF($3::int, 0)`,
		string(status), before, limit,
	)
}

func (r *ReturnRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ReturnDocument, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	defer rows.Close()
	var list []*entity.ReturnDocument
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		list = append(list, ret)
	}
	return list, rows.Err()
}

func (r *ReturnRepo) lines(ctx context.Context, returnID string) ([]entity.ReturnLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+returnLineColumns+` FROM return_lines WHERE return_id = $1 ORDER BY pos`, returnID)
	if err != nil {
		return nil, fmt.Errorf("list return lines: %w", err)
	}
	defer rows.Close()
	var out []entity.ReturnLine
	for rows.Next() {
		var l entity.ReturnLine
		if err := rows.Scan(&l.ID, &l.ReturnID, &l.SaleLineID, &l.ProductID, &l.Description, &l.UnitMeasure, &l.Quantity,
			&l.UnitPrice, &l.UnitPriceWithTax, &l.Subtotal, &l.TaxRate, &l.TaxAffectationCode); err != nil {
			return nil, fmt.Errorf("scan return line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanReturn(row rowScanner) (*entity.ReturnDocument, error) {
	var ret entity.ReturnDocument
	f := newFiscalScan(&ret.Fiscal)
	dest := []any{
		&ret.ID, &ret.SaleID, &ret.SaleDocumentType, &ret.SaleSeries, &ret.SaleNumber, &ret.DocumentType, &ret.Series, &ret.Number,
		&ret.IssueDate, &ret.Currency, &ret.ReasonCode, &ret.Reason, &ret.RefundMethod,
		&ret.Customer.DocType, &ret.Customer.DocNumber, &ret.Customer.Name, &ret.Customer.Address,
		&ret.TaxRate, &ret.TaxableBase, &ret.TaxAmount, &ret.GrandTotal,
	}
	dest = append(dest, f.dest()...)
	dest = append(dest, &ret.CreatedBy, &ret.CreatedAt, &ret.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	f.done()
	return &ret, nil
}
