// Package inventory expone el kardex: única vía para modificar el stock de un producto.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-fiscal-api/internal/application/audit"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	domaininv "github.com/jhoicas/pos-fiscal-api/internal/domain/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

// Ledger registra movimientos append-only y mantiene el caché current_stock del producto.
type Ledger struct {
	txRunner  repository.TxRunner
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	audit     audit.Sink
	log       zerolog.Logger
}

// NewLedger construye el kardex. sink puede ser nil.
func NewLedger(
	txRunner repository.TxRunner,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	sink audit.Sink,
	log zerolog.Logger,
) *Ledger {
	return &Ledger{
		txRunner:  txRunner,
		products:  products,
		movements: movements,
		audit:     sink,
		log:       log,
	}
}

// MovementInput entrada de un movimiento.
// Quantity es positiva para IN/OUT; en ADJUST lleva signo y Reason es obligatorio.
type MovementInput struct {
	ProductID     string
	Kind          string
	Quantity      int64
	Reason        string
	ReferenceID   string
	CreatedBy     string
	AllowNegative bool
}

func (in MovementInput) validate() error {
	if strings.TrimSpace(in.ProductID) == "" {
		return domain.ErrInvalidInput
	}
	if _, err := domaininv.Delta(in.Kind, in.Quantity); err != nil {
		return err
	}
	if in.Kind == entity.MovementKindAdjust && strings.TrimSpace(in.Reason) == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

// StockSnapshot estado del producto antes/después de un movimiento manual (auditoría).
type StockSnapshot struct {
	ProductID string `json:"product_id"`
	Stock     int64  `json:"stock"`
	Version   int64  `json:"version"`
}

// ApplyMovement registra un movimiento en su propia transacción:
// bloquea el producto, agrega el movimiento y actualiza el caché.
func (l *Ledger) ApplyMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, err := l.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	before := StockSnapshot{ProductID: current.ID, Stock: current.CurrentStock, Version: current.Version}

	var mov *entity.StockMovement
	_, err = audit.Run(ctx, l.audit, "stock."+strings.ToLower(in.Kind), in.ProductID, before, func() (StockSnapshot, error) {
		var after StockSnapshot
		txErr := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			product, err := repos.Products.GetForUpdate(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			mov, err = l.ApplyInTx(ctx, repos, product, in)
			if err != nil {
				return err
			}
			after = StockSnapshot{ProductID: product.ID, Stock: product.CurrentStock, Version: product.Version}
			return nil
		})
		return after, txErr
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().
		Str("product_id", mov.ProductID).
		Str("kind", mov.Kind).
		Int64("quantity", mov.Quantity).
		Int64("stock_after", mov.StockAfter).
		Msg("movimiento de kardex registrado")
	return mov, nil
}

// ApplyInTx registra el movimiento con los repositorios de la transacción del caller.
// product debe estar bloqueado (GetForUpdate); se actualiza en memoria (stock y versión)
// para que varias líneas del mismo producto encadenen correctamente.
// Si retorna error el caller debe hacer rollback.
func (l *Ledger) ApplyInTx(ctx context.Context, repos repository.TxRepos, product *entity.Product, in MovementInput) (*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	delta, _ := domaininv.Delta(in.Kind, in.Quantity)
	before := product.CurrentStock
	after := before + delta
	if delta < 0 && after < 0 && !in.AllowNegative {
		return nil, fmt.Errorf("%w: producto %s tiene %d, se requieren %d", domain.ErrInsufficientStock, product.ID, before, -delta)
	}

	mov := &entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		Kind:        in.Kind,
		Reason:      in.Reason,
		Quantity:    in.Quantity,
		StockBefore: before,
		StockAfter:  after,
		ReferenceID: in.ReferenceID,
		CreatedAt:   time.Now(),
		CreatedBy:   in.CreatedBy,
	}
	// Primero el kardex, luego el caché.
	if err := repos.Movements.Append(ctx, mov); err != nil {
		return nil, err
	}
	if err := repos.Products.UpdateStock(ctx, product.ID, product.Version, after); err != nil {
		return nil, err
	}
	product.CurrentStock = after
	product.Version++
	return mov, nil
}

// CurrentStock lee el caché del producto (O(1)).
func (l *Ledger) CurrentStock(ctx context.Context, productID string) (int64, error) {
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, domain.ErrNotFound
	}
	return p.CurrentStock, nil
}

// Reconciliation compara el caché contra la reproducción del kardex.
type Reconciliation struct {
	ProductID   string
	CachedStock int64
	LedgerStock int64
	Drift       int64 // CachedStock - LedgerStock
	Movements   int
	Breaks      []domaininv.ChainBreak
}

// Consistent indica caché igual al kardex y cadena sin rupturas.
func (r *Reconciliation) Consistent() bool {
	return r.Drift == 0 && len(r.Breaks) == 0
}

// RecomputeFromLedger reproduce todos los movimientos desde 0 (O(n)). No corrige nada: solo informa.
func (l *Ledger) RecomputeFromLedger(ctx context.Context, productID string) (*Reconciliation, error) {
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := l.movements.ListByProduct(ctx, productID, 0, 0)
	if err != nil {
		return nil, err
	}
	res := domaininv.Replay(movs)
	rec := &Reconciliation{
		ProductID:   productID,
		CachedStock: p.CurrentStock,
		LedgerStock: res.Stock,
		Drift:       p.CurrentStock - res.Stock,
		Movements:   res.Movements,
		Breaks:      res.Breaks,
	}
	if !rec.Consistent() {
		l.log.Warn().
			Str("product_id", productID).
			Int64("cached", rec.CachedStock).
			Int64("ledger", rec.LedgerStock).
			Int("breaks", len(rec.Breaks)).
			Msg("kardex inconsistente con el caché de stock")
	}
	return rec, nil
}

// ListMovements lectura del kardex para colaboradores externos (reportes).
func (l *Ledger) ListMovements(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	if limit < 0 || offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	return l.movements.ListByProduct(ctx, productID, limit, offset)
}
