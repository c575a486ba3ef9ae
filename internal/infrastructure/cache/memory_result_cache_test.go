package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

func TestMemoryResultCache_PrimerResultadoPrevalece(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache(0)

	got, err := c.Get(ctx, "03|B001|11")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Put(ctx, "03|B001|11", entity.FiscalState{Status: entity.FiscalStatusAccepted, Hash: "h1"}))
	require.NoError(t, c.Put(ctx, "03|B001|11", entity.FiscalState{Status: entity.FiscalStatusAccepted, Hash: "h2"}))

	got, err = c.Get(ctx, "03|B001|11")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.Hash)
}

func TestMemoryResultCache_Expira(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "k", entity.FiscalState{Hash: "h"}))
	now = now.Add(2 * time.Minute)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len())
}
