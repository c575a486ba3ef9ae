//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/application/numbering"
	"github.com/jhoicas/pos-fiscal-api/internal/application/returns"
	"github.com/jhoicas/pos-fiscal-api/internal/application/sales"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return newTestStoreConns(t, 20)
}

// newTestStoreConns levanta Postgres con un pool principal de maxConns conexiones.
func newTestStoreConns(t *testing.T, maxConns int) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	cfg := config.DBConfig{DatabaseURL: dsn, MaxConns: maxConns, NumberingConns: 2}
	pool, err := NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	numberingPool, err := NewNumberingPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(numberingPool.Close)
	return NewStore(pool, numberingPool)
}

func seedProduct(t *testing.T, s *Store, id string, stock int64) {
	t.Helper()
	now := time.Now()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{
		ID: id, SKU: id, Name: "Producto " + id, UnitMeasure: "NIU",
		Price: decimal.RequireFromString("10.50"), Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	if stock > 0 {
		ledger := inventory.NewLedger(s, s.Products(), s.Movements(), nil, zerolog.Nop())
		_, err := ledger.ApplyMovement(context.Background(), inventory.MovementInput{
			ProductID: id, Kind: entity.MovementKindIn, Quantity: stock, Reason: "stock inicial",
		})
		require.NoError(t, err)
	}
}

func TestPostgres_CompareAndSwapConcurrente(t *testing.T) {
	s := newTestStore(t)
	alloc := numbering.NewAllocator(s.Counters(), s.BurnedNumbers(), numbering.Config{MaxAttempts: 1000}, zerolog.Nop())

	const n = 32
	got := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := alloc.NextNumber(context.Background(), "03", "B001")
			if assert.NoError(t, err) {
				got <- num
			}
		}()
	}
	wg.Wait()
	close(got)

	seen := make(map[int64]bool)
	for num := range got {
		assert.False(t, seen[num], "número repetido %d", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "falta %d", i)
	}
}

func TestPostgres_KardexYVersion(t *testing.T) {
	s := newTestStore(t)
	seedProduct(t, s, "p1", 5)

	p, err := s.Products().GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.CurrentStock)
	assert.Equal(t, int64(1), p.Version)
	assert.ErrorIs(t, s.Products().UpdateStock(context.Background(), "p1", 0, 9), domain.ErrVersionConflict)

	movs, err := s.Movements().ListByProduct(context.Background(), "p1", 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, int64(1), movs[0].Seq)
	assert.Equal(t, int64(0), movs[0].StockBefore)
	assert.Equal(t, int64(5), movs[0].StockAfter)
}

func TestPostgres_VentaDevolucionYFiscal(t *testing.T) {
	s := newTestStore(t)
	seedProduct(t, s, "p1", 10)
	ctx := context.Background()

	ledger := inventory.NewLedger(s, s.Products(), s.Movements(), nil, zerolog.Nop())
	alloc := numbering.NewAllocator(s.Counters(), s.BurnedNumbers(), numbering.DefaultConfig(), zerolog.Nop())
	saleProc := sales.NewProcessor(s, s.Sales(), alloc, ledger, nil, nil, zerolog.Nop())
	retProc := returns.NewProcessor(s, s.Returns(), alloc, ledger, nil, zerolog.Nop())

	sale, err := saleProc.IssueSale(ctx, sales.IssueSaleInput{
		DocumentType: entity.DocumentTypeBoleta,
		Series:       "B001",
		Lines:        []sales.SaleLineInput{{ProductID: "p1", Quantity: 4}},
		CreatedBy:    "cajero",
		Policy: sales.Policy{
			TaxRate: decimal.RequireFromString("0.18"), Currency: "PEN",
			TaxOperationCode: "0101", TaxAffectationCode: "10",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sale.Number)

	loaded, err := s.Sales().GetByID(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.True(t, sale.GrandTotal.Equal(loaded.GrandTotal))
	assert.Equal(t, entity.FiscalStatusNone, loaded.Fiscal.Status)

	ret, err := retProc.IssueReturn(ctx, returns.IssueReturnInput{
		SaleID:       sale.ID,
		Series:       "BC01",
		Reason:       "producto dañado",
		RefundMethod: entity.RefundMethodInventoryReturn,
		Lines:        []returns.ReturnLineInput{{SaleLineID: loaded.Lines[0].ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ret.Number)

	qty, err := s.Returns().ReturnedQuantities(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty[loaded.Lines[0].ID])

	stock, err := ledger.CurrentStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(9), stock)
	rec, err := ledger.RecomputeFromLedger(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, rec.Consistent())

	// CAS fiscal
	now := time.Now()
	require.NoError(t, s.Sales().UpdateFiscal(ctx, sale.ID, entity.FiscalStatusNone,
		entity.FiscalState{Status: entity.FiscalStatusPending, SubmittedAt: &now, Attempts: 1}))
	assert.ErrorIs(t, s.Sales().UpdateFiscal(ctx, sale.ID, entity.FiscalStatusNone,
		entity.FiscalState{Status: entity.FiscalStatusPending}), domain.ErrConflict)
	assert.ErrorIs(t, s.Sales().UpdateFiscal(ctx, "nope", entity.FiscalStatusNone,
		entity.FiscalState{Status: entity.FiscalStatusPending}), domain.ErrNotFound)

	// PENDING → PENDING: solo gana quien trae la versión vigente
	read, err := s.Sales().GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), read.Fiscal.Version)
	require.NoError(t, s.Sales().UpdateFiscal(ctx, sale.ID, entity.FiscalStatusPending, read.Fiscal))
	assert.ErrorIs(t, s.Sales().UpdateFiscal(ctx, sale.ID, entity.FiscalStatusPending, read.Fiscal), domain.ErrConflict)

	pending, err := s.Sales().ListByFiscalStatus(ctx, entity.FiscalStatusPending, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Fiscal.Attempts)

	require.NoError(t, s.Attempts().Create(ctx, &entity.FiscalAttempt{
		DocumentKind: entity.DocumentKindSale, DocumentID: sale.ID, Number: 1,
		StartedAt: now, FinishedAt: now, Outcome: entity.AttemptOutcomeTimeout, HTTPStatus: 504,
	}))
	attempts, err := s.Attempts().ListByDocument(ctx, entity.DocumentKindSale, sale.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 504, attempts[0].HTTPStatus)
}

func TestPostgres_VentasConcurrentesSinSobreventa(t *testing.T) {
	s := newTestStore(t)
	seedProduct(t, s, "p1", 5)

	ledger := inventory.NewLedger(s, s.Products(), s.Movements(), nil, zerolog.Nop())
	alloc := numbering.NewAllocator(s.Counters(), s.BurnedNumbers(), numbering.Config{MaxAttempts: 1000}, zerolog.Nop())
	proc := sales.NewProcessor(s, s.Sales(), alloc, ledger, nil, nil, zerolog.Nop())

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insufficient := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := proc.IssueSale(context.Background(), sales.IssueSaleInput{
				DocumentType: entity.DocumentTypeBoleta,
				Series:       "B001",
				Lines:        []sales.SaleLineInput{{ProductID: "p1", Quantity: 1}},
				Policy:       sales.Policy{TaxRate: decimal.RequireFromString("0.18"), Currency: "PEN"},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
				insufficient++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 3, insufficient)
	p, err := s.Products().GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.CurrentStock)
	c, err := s.Counters().Get(context.Background(), "03", "B001")
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.LastNumber, "los rechazos por stock no consumen correlativo")
}

func TestPostgres_VentasConPoolSaturado(t *testing.T) {
	// cada venta retiene una conexión del pool principal mientras pide su correlativo
	s := newTestStoreConns(t, 2)
	seedProduct(t, s, "p1", 50)

	ledger := inventory.NewLedger(s, s.Products(), s.Movements(), nil, zerolog.Nop())
	alloc := numbering.NewAllocator(s.Counters(), s.BurnedNumbers(), numbering.Config{MaxAttempts: 1000}, zerolog.Nop())
	proc := sales.NewProcessor(s, s.Sales(), alloc, ledger, nil, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = proc.IssueSale(ctx, sales.IssueSaleInput{
				DocumentType: entity.DocumentTypeBoleta,
				Series:       "B001",
				Lines:        []sales.SaleLineInput{{ProductID: "p1", Quantity: 1}},
				Policy:       sales.Policy{TaxRate: decimal.RequireFromString("0.18"), Currency: "PEN"},
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	c, err := s.Counters().Get(context.Background(), "03", "B001")
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.LastNumber)
}
