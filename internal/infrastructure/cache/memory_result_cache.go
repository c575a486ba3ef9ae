package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

type memoryEntry struct {
	state     entity.FiscalState
	expiresAt time.Time // cero = sin expiración
}

// MemoryResultCache caché en proceso (una sola instancia, pruebas).
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ repository.FiscalResultCache = (*MemoryResultCache)(nil)

// NewMemoryResultCache construye el caché. ttl 0 = sin expiración.
func NewMemoryResultCache(ttl time.Duration) *MemoryResultCache {
	return &MemoryResultCache{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

// Get implementa repository.FiscalResultCache.
func (c *MemoryResultCache) Get(_ context.Context, key string) (*entity.FiscalState, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	st := e.state
	return &st, nil
}

// Put guarda el resultado si no existe uno vigente.
func (c *MemoryResultCache) Put(_ context.Context, key string, state entity.FiscalState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if e, ok := c.entries[key]; ok && (e.expiresAt.IsZero() || now.Before(e.expiresAt)) {
		return nil
	}
	e := memoryEntry{state: state}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	c.entries[key] = e
	return nil
}

// Len cantidad de entradas (incluye expiradas aún no purgadas).
func (c *MemoryResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
