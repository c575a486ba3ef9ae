package fiscal

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/pse"
)

// document vista común de venta y nota de crédito para el envío.
type document struct {
	ref      entity.DocumentRef
	number   string // SERIE-NUMERO
	cacheKey string
	void     bool
	state    entity.FiscalState
	request  *pse.Request
}

// CacheKey clave de idempotencia (tipo, serie, número).
func CacheKey(documentType, series string, number int64) string {
	return fmt.Sprintf("%s|%s|%d", documentType, series, number)
}

func (g *Gateway) load(ctx context.Context, ref entity.DocumentRef) (*document, error) {
	switch ref.Kind {
	case entity.DocumentKindSale:
		s, err := g.sales.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, domain.ErrNotFound
		}
		return &document{
			ref:      ref,
			number:   s.FullNumber(),
			cacheKey: CacheKey(s.DocumentType, s.Series, s.Number),
			void:     s.Status == entity.SaleStatusVoid,
			state:    s.Fiscal,
			request:  pse.FromSale(s),
		}, nil
	case entity.DocumentKindReturn:
		r, err := g.returns.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, domain.ErrNotFound
		}
		return &document{
			ref:      ref,
			number:   r.FullNumber(),
			cacheKey: CacheKey(r.DocumentType, r.Series, r.Number),
			state:    r.Fiscal,
			request:  pse.FromReturn(r),
		}, nil
	}
	return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, ref.Kind)
}

// save escribe el estado solo si el actual sigue siendo expected en la versión st.Version;
// si escribe, st queda con la versión nueva.
// Usa un ctx sin cancelación: un resultado obtenido no se pierde porque el caller se fue.
func (g *Gateway) save(ctx context.Context, ref entity.DocumentRef, expected entity.FiscalStatus, st *entity.FiscalState) error {
	// un resultado aceptado ya conocido (caché) se adopta desde cualquier estado no terminal
	if !expected.CanTransitionTo(st.Status) && st.Status != entity.FiscalStatusAccepted {
		return fmt.Errorf("%w: transición fiscal %s → %s", domain.ErrConflict, expected, st.Status)
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if ref.Kind == entity.DocumentKindReturn {
		err = g.returns.UpdateFiscal(ctx, ref.ID, expected, *st)
	} else {
		err = g.sales.UpdateFiscal(ctx, ref.ID, expected, *st)
	}
	if err != nil {
		return err
	}
	st.Version++
	return nil
}
