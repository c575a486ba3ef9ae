package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

func TestStore_RollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", Active: true}))

	boom := errors.New("boom")
	err := s.Run(ctx, func(ctx context.Context, r repository.TxRepos) error {
		require.NoError(t, r.Movements.Append(ctx, &entity.StockMovement{ProductID: "p1", Kind: entity.MovementKindIn, Quantity: 5, StockAfter: 5}))
		require.NoError(t, r.Products.UpdateStock(ctx, "p1", 0, 5))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.CurrentStock)
	movs, err := s.Movements().ListByProduct(ctx, "p1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestStore_CommitPublicaCambios(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", Active: true}))

	err := s.Run(ctx, func(ctx context.Context, r repository.TxRepos) error {
		if err := r.Movements.Append(ctx, &entity.StockMovement{ProductID: "p1", Kind: entity.MovementKindIn, Quantity: 5, StockAfter: 5}); err != nil {
			return err
		}
		return r.Products.UpdateStock(ctx, "p1", 0, 5)
	})
	require.NoError(t, err)

	p, _ := s.Products().GetByID(ctx, "p1")
	assert.Equal(t, int64(5), p.CurrentStock)
	assert.Equal(t, int64(1), p.Version)
	movs, _ := s.Movements().ListByProduct(ctx, "p1", 0, 0)
	require.Len(t, movs, 1)
	assert.Equal(t, int64(1), movs[0].Seq)
}

func TestStore_UpdateStockConVersionVieja(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1"}))
	require.NoError(t, s.Products().UpdateStock(ctx, "p1", 0, 3))
	assert.ErrorIs(t, s.Products().UpdateStock(ctx, "p1", 0, 4), domain.ErrVersionConflict)
}

func TestStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := s.Counters()
	require.NoError(t, c.EnsureExists(ctx, "03", "B001"))
	require.NoError(t, c.EnsureExists(ctx, "03", "B001"))

	ok, err := c.CompareAndSwap(ctx, "03", "B001", 0, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CompareAndSwap(ctx, "03", "B001", 0, 1)
	require.NoError(t, err)
	assert.False(t, ok, "el valor esperado ya no es 0")

	got, err := c.Get(ctx, "03", "B001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LastNumber)
	assert.Equal(t, int64(1), got.Version)
}

func TestStore_VentaDuplicada(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sale := &entity.SaleDocument{ID: "s1", DocumentType: "03", Series: "B001", Number: 1}
	require.NoError(t, s.Sales().Create(ctx, sale))
	dup := &entity.SaleDocument{ID: "s2", DocumentType: "03", Series: "B001", Number: 1}
	assert.ErrorIs(t, s.Sales().Create(ctx, dup), domain.ErrDuplicate)
}

func TestStore_UpdateFiscalConEstadoEsperado(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Sales().Create(ctx, &entity.SaleDocument{ID: "s1", DocumentType: "03", Series: "B001", Number: 1}))

	require.NoError(t, s.Sales().UpdateFiscal(ctx, "s1", entity.FiscalStatusNone, entity.FiscalState{Status: entity.FiscalStatusPending}))
	err := s.Sales().UpdateFiscal(ctx, "s1", entity.FiscalStatusNone, entity.FiscalState{Status: entity.FiscalStatusPending})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_UpdateFiscalConVersionVieja(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Sales().Create(ctx, &entity.SaleDocument{ID: "s1", DocumentType: "03", Series: "B001", Number: 1}))
	require.NoError(t, s.Sales().UpdateFiscal(ctx, "s1", entity.FiscalStatusNone, entity.FiscalState{Status: entity.FiscalStatusPending}))

	read, err := s.Sales().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), read.Fiscal.Version)

	// dos procesos leyeron el mismo PENDING: el segundo CAS debe perder
	require.NoError(t, s.Sales().UpdateFiscal(ctx, "s1", entity.FiscalStatusPending, read.Fiscal))
	assert.ErrorIs(t, s.Sales().UpdateFiscal(ctx, "s1", entity.FiscalStatusPending, read.Fiscal), domain.ErrConflict)

	require.NoError(t, s.Returns().Create(ctx, &entity.ReturnDocument{ID: "r1", DocumentType: "07", Series: "BC01", Number: 1}))
	require.NoError(t, s.Returns().UpdateFiscal(ctx, "r1", entity.FiscalStatusNone, entity.FiscalState{Status: entity.FiscalStatusPending}))
	assert.ErrorIs(t, s.Returns().UpdateFiscal(ctx, "r1", entity.FiscalStatusPending, entity.FiscalState{Status: entity.FiscalStatusPending}), domain.ErrConflict)
}
