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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, document_type, series, number, issue_date, due_date, currency, tax_operation_code,
	customer_doc_type, customer_doc_number, customer_name, customer_address,
	tax_rate, taxable_base, tax_amount, grand_total, status, ` + fiscalColumns + `,
	created_by, created_at, updated_at`

const saleLineColumns = `id, sale_id, line_no, product_id, description, unit_measure, quantity,
	unit_price, unit_price_with_tax, subtotal, tax_rate, tax_affectation_code`

// SaleRepo comprobantes de venta (cabecera + líneas) sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera y líneas en un solo batch.
func (r *SaleRepo) Create(ctx context.Context, s *entity.SaleDocument) error {
	batch := &pgx.Batch{}
	args := []any{
		s.ID, s.DocumentType, s.Series, s.Number, s.IssueDate, s.DueDate, s.Currency, s.TaxOperationCode,
		s.Customer.DocType, s.Customer.DocNumber, s.Customer.Name, s.Customer.Address,
		s.TaxRate, s.TaxableBase, s.TaxAmount, s.GrandTotal, s.Status,
	}
	args = append(args, fiscalArgs(s.Fiscal)...)
	args = append(args, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	batch.Queue(`INSERT INTO sales (`+saleColumns+`) VALUES (`+placeholders(len(args))+`)`, args...)

	for i := range s.Lines {
		l := &s.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.SaleID = s.ID
		batch.Queue(`INSERT INTO sale_lines (`+saleLineColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			l.ID, l.SaleID, l.LineNo, l.ProductID, l.Description, l.UnitMeasure, l.Quantity,
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
			return fmt.Errorf("insert sale: %w", err)
		}
	}
	return br.Close()
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.SaleDocument, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera; las líneas son inmutables.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.SaleDocument, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.SaleDocument, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if s.Lines, err = r.lines(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SaleRepo) lines(ctx context.Context, saleID string) ([]entity.SaleLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+saleLineColumns+` FROM sale_lines WHERE sale_id = $1 ORDER BY line_no`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	var out []entity.SaleLine
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.LineNo, &l.ProductID, &l.Description, &l.UnitMeasure, &l.Quantity,
			&l.UnitPrice, &l.UnitPriceWithTax, &l.Subtotal, &l.TaxRate, &l.TaxAffectationCode); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SaleRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateFiscal CAS sobre (fiscal_status, fiscal_version).
func (r *SaleRepo) UpdateFiscal(ctx context.Context, id string, expected entity.FiscalStatus, st entity.FiscalState) error {
	args := append([]any{id, string(expected)}, fiscalArgs(st)...)
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET `+fiscalSet+fiscalCAS, args...)
	if err != nil {
		return fmt.Errorf("update sale fiscal: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

func (r *SaleRepo) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check sale: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

// ListByFiscalStatus ventas emitidas (no anuladas) en el estado dado, sin cambios desde before.
// No carga líneas: el barrido solo necesita la referencia.
func (r *SaleRepo) ListByFiscalStatus(ctx context.Context, status entity.FiscalStatus, before time.Time, limit int) ([]*entity.SaleDocument, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+` FROM sales
		 WHERE fiscal_status = $1 AND status = $2 AND updated_at < $3
		 ORDER BY created_at LIMIT NULLIF($4::int, 0)`,
		string(status), entity.SaleStatusIssued, before, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales by fiscal status: %w", err)
	}
	defer rows.Close()
	var list []*entity.SaleDocument
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSale(row rowScanner) (*entity.SaleDocument, error) {
	var s entity.SaleDocument
	f := newFiscalScan(&s.Fiscal)
	dest := []any{
		&s.ID, &s.DocumentType, &s.Series, &s.Number, &s.IssueDate, &s.DueDate, &s.Currency, &s.TaxOperationCode,
		&s.Customer.DocType, &s.Customer.DocNumber, &s.Customer.Name, &s.Customer.Address,
		&s.TaxRate, &s.TaxableBase, &s.TaxAmount, &s.GrandTotal, &s.Status,
	}
	dest = append(dest, f.dest()...)
	dest = append(dest, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	f.done()
	return &s, nil
}

// placeholders "$1, $2, ..., $n".
func placeholders(n int) string {
	out := make([]byte, 0, n*4)
	for i := 1; i <= n; i++ {
		if i > 1 {
			out = append(out, ", "...)
		}
		out = append(out, fmt.Sprintf("$%d", i)...)
	}
	return string(out)
}
