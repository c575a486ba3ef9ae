package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/memory"
)

func newProductUseCase() (*ProductUseCase, *memory.Store) {
	store := memory.NewStore()
	ledger := inventory.NewLedger(store, store.Products(), store.Movements(), nil, zerolog.Nop())
	return NewProductUseCase(store.Products(), ledger), store
}

func TestProductUseCase_CreateConStockInicial(t *testing.T) {
	ctx := context.Background()
	uc, store := newProductUseCase()

	out, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "ARR-1", Name: "Arroz 1kg", Price: decimal.RequireFromString("3.50"), InitialStock: 12}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NIU", out.UnitMeasure)
	assert.True(t, out.Active)
	assert.Equal(t, int64(12), out.CurrentStock)
	assert.Equal(t, int64(1), out.Version)

	movs, err := store.Movements().ListByProduct(ctx, out.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, InitialStockReason, movs[0].Reason)
	assert.Equal(t, "u1", movs[0].CreatedBy)
}

func TestProductUseCase_CreateSinStockNoEscribeKardex(t *testing.T) {
	ctx := context.Background()
	uc, store := newProductUseCase()

	out, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Azúcar", Price: decimal.NewFromInt(4)}, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.CurrentStock)

	movs, err := store.Movements().ListByProduct(ctx, out.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestProductUseCase_CreateInvalido(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "  "}, "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "x", Price: decimal.NewFromInt(-1)}, "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "x", InitialStock: -3}, "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUseCase_GetByIDInexistente(t *testing.T) {
	uc, _ := newProductUseCase()
	_, err := uc.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
