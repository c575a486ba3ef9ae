package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*productRepo)(nil)
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.SaleRepository          = (*saleRepo)(nil)
	_ repository.ReturnRepository        = (*returnRepo)(nil)
	_ repository.SeriesCounterRepository = (*counterRepo)(nil)
	_ repository.BurnedNumberRepository  = (*burnedRepo)(nil)
	_ repository.FiscalAttemptRepository = (*attemptRepo)(nil)
)

func docKey(docType, series string, number int64) string {
	return fmt.Sprintf("%s|%s|%d", docType, series, number)
}

// ── productos ────────────────────────────────────────────────────────────────

type productRepo struct{ run access }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.run(func(d *dataset) error {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if _, ok := d.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		now := time.Now()
		p.CreatedAt, p.UpdatedAt = now, now
		d.products[p.ID] = *p
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.run(func(d *dataset) error {
		if p, ok := d.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: la transacción en memoria ya es exclusiva.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) UpdateStock(_ context.Context, id string, expectedVersion, newStock int64) error {
	return r.run(func(d *dataset) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		if p.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		p.CurrentStock = newStock
		p.Version++
		p.UpdatedAt = time.Now()
		d.products[id] = p
		return nil
	})
}

// ── kardex ───────────────────────────────────────────────────────────────────

type movementRepo struct{ run access }

func (r *movementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	return r.run(func(d *dataset) error {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.Seq = int64(len(d.movements[m.ProductID])) + 1
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		d.appendMovement(*m)
		return nil
	})
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.run(func(d *dataset) error {
		list := d.movements[productID]
		if offset > len(list) {
			return nil
		}
		list = list[offset:]
		if limit > 0 && limit < len(list) {
			list = list[:limit]
		}
		for i := range list {
			m := list[i]
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}

// ── ventas ───────────────────────────────────────────────────────────────────

type saleRepo struct{ run access }

func copySale(s entity.SaleDocument) *entity.SaleDocument {
	s.Lines = append([]entity.SaleLine(nil), s.Lines...)
	return &s
}

func (r *saleRepo) Create(_ context.Context, s *entity.SaleDocument) error {
	return r.run(func(d *dataset) error {
		key := docKey(s.DocumentType, s.Series, s.Number)
		if _, ok := d.saleKeys[key]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := d.sales[s.ID]; ok {
			return domain.ErrDuplicate
		}
		d.sales[s.ID] = *copySale(*s)
		d.saleKeys[key] = s.ID
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.SaleDocument, error) {
	var out *entity.SaleDocument
	err := r.run(func(d *dataset) error {
		if s, ok := d.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.SaleDocument, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) UpdateStatus(_ context.Context, id, status string) error {
	return r.run(func(d *dataset) error {
		s, ok := d.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		s.Status = status
		s.UpdatedAt = time.Now()
		d.sales[id] = s
		return nil
	})
}

func (r *saleRepo) UpdateFiscal(_ context.Context, id string, expected entity.FiscalStatus, state entity.FiscalState) error {
	return r.run(func(d *dataset) error {
		s, ok := d.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		if s.Fiscal.Status != expected || s.Fiscal.Version != state.Version {
			return domain.ErrConflict
		}
		state.Version++
		s.Fiscal = state
		s.UpdatedAt = time.Now()
		d.sales[id] = s
		return nil
	})
}

func (r *saleRepo) ListByFiscalStatus(_ context.Context, status entity.FiscalStatus, before time.Time, limit int) ([]*entity.SaleDocument, error) {
	var out []*entity.SaleDocument
	err := r.run(func(d *dataset) error {
		for _, s := range d.sales {
			if s.Fiscal.Status == status && s.Status == entity.SaleStatusIssued && s.UpdatedAt.Before(before) {
				out = append(out, copySale(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// ── devoluciones ─────────────────────────────────────────────────────────────

type returnRepo struct{ run access }

func copyReturn(r entity.ReturnDocument) *entity.ReturnDocument {
	r.Lines = append([]entity.ReturnLine(nil), r.Lines...)
	return &r
}

func (r *returnRepo) Create(_ context.Context, ret *entity.ReturnDocument) error {
	return r.run(func(d *dataset) error {
		key := docKey(ret.DocumentType, ret.Series, ret.Number)
		if _, ok := d.returnKeys[key]; ok {
			return domain.ErrDuplicate
		}
		d.returns[ret.ID] = *copyReturn(*ret)
		d.returnKeys[key] = ret.ID
		return nil
	})
}

func (r *returnRepo) GetByID(_ context.Context, id string) (*entity.ReturnDocument, error) {
	var out *entity.ReturnDocument
	err := r.run(func(d *dataset) error {
		if ret, ok := d.returns[id]; ok {
			out = copyReturn(ret)
		}
		return nil
	})
	return out, err
}

func (r *returnRepo) ListBySale(_ context.Context, saleID string) ([]*entity.ReturnDocument, error) {
	var out []*entity.ReturnDocument
	err := r.run(func(d *dataset) error {
		for _, ret := range d.returns {
			if ret.SaleID == saleID {
				out = append(out, copyReturn(ret))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, err
}

func (r *returnRepo) ReturnedQuantities(_ context.Context, saleID string) (map[string]int64, error) {
	res := make(map[string]int64)
	err := r.run(func(d *dataset) error {
		for _, ret := range d.returns {
			if ret.SaleID != saleID {
				continue
			}
			for _, l := range ret.Lines {
				res[l.SaleLineID] += l.Quantity
			}
		}
		return nil
	})
	return res, err
}

func (r *returnRepo) UpdateFiscal(_ context.Context, id string, expected entity.FiscalStatus, state entity.FiscalState) error {
	return r.run(func(d *dataset) error {
		ret, ok := d.returns[id]
		if !ok {
			return domain.ErrNotFound
		}
		if ret.Fiscal.Status != expected || ret.Fiscal.Version != state.Version {
			return domain.ErrConflict
		}
		state.Version++
		ret.Fiscal = state
		ret.UpdatedAt = time.Now()
		d.returns[id] = ret
		return nil
	})
}

func (r *returnRepo) ListByFiscalStatus(_ context.Context, status entity.FiscalStatus, before time.Time, limit int) ([]*entity.ReturnDocument, error) {
	var out []*entity.ReturnDocument
	err := r.run(func(d *dataset) error {
		for _, ret := range d.returns {
			if ret.Fiscal.Status == status && ret.UpdatedAt.Before(before) {
				out = append(out, copyReturn(ret))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// ── contadores de serie ──────────────────────────────────────────────────────

type counterRepo struct{ s *Store }

func counterKey(code, series string) string { return code + "|" + series }

func (r *counterRepo) Get(_ context.Context, code, series string) (*entity.SeriesCounter, error) {
	r.s.counterMu.Lock()
	defer r.s.counterMu.Unlock()
	c, ok := r.s.counters[counterKey(code, series)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *counterRepo) EnsureExists(_ context.Context, code, series string) error {
	r.s.counterMu.Lock()
	defer r.s.counterMu.Unlock()
	key := counterKey(code, series)
	if _, ok := r.s.counters[key]; !ok {
		r.s.counters[key] = entity.SeriesCounter{DocumentCode: code, Series: series, UpdatedAt: time.Now()}
	}
	return nil
}

func (r *counterRepo) CompareAndSwap(_ context.Context, code, series string, expected, next int64) (bool, error) {
	r.s.counterMu.Lock()
	defer r.s.counterMu.Unlock()
	key := counterKey(code, series)
	c, ok := r.s.counters[key]
	if !ok || c.LastNumber != expected {
		return false, nil
	}
	c.LastNumber = next
	c.Version++
	c.UpdatedAt = time.Now()
	r.s.counters[key] = c
	return true, nil
}

// SetCounter fija el último número de una serie (migración de numeración existente, pruebas).
func (s *Store) SetCounter(code, series string, last int64) {
	s.counterMu.Lock()
	defer s.counterMu.Unlock()
	s.counters[counterKey(code, series)] = entity.SeriesCounter{
		DocumentCode: code, Series: series, LastNumber: last, UpdatedAt: time.Now(),
	}
}

type burnedRepo struct{ s *Store }

func (r *burnedRepo) Record(_ context.Context, b *entity.BurnedNumber) error {
	r.s.counterMu.Lock()
	defer r.s.counterMu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	r.s.burned = append(r.s.burned, *b)
	return nil
}

func (r *burnedRepo) ListBySeries(_ context.Context, code, series string) ([]*entity.BurnedNumber, error) {
	r.s.counterMu.Lock()
	defer r.s.counterMu.Unlock()
	var out []*entity.BurnedNumber
	for i := range r.s.burned {
		b := r.s.burned[i]
		if b.DocumentCode == code && b.Series == series {
			out = append(out, &b)
		}
	}
	return out, nil
}

// ── intentos fiscales ────────────────────────────────────────────────────────

type attemptRepo struct{ s *Store }

func (r *attemptRepo) Create(_ context.Context, a *entity.FiscalAttempt) error {
	r.s.attemptMu.Lock()
	defer r.s.attemptMu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	r.s.attempts = append(r.s.attempts, *a)
	return nil
}

func (r *attemptRepo) ListByDocument(_ context.Context, kind entity.DocumentKind, id string) ([]*entity.FiscalAttempt, error) {
	r.s.attemptMu.Lock()
	defer r.s.attemptMu.Unlock()
	var out []*entity.FiscalAttempt
	for i := range r.s.attempts {
		a := r.s.attempts[i]
		if a.DocumentKind == kind && a.DocumentID == id {
			out = append(out, &a)
		}
	}
	return out, nil
}
