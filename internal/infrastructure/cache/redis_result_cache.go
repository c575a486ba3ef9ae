// Package cache implementa el caché de resultados fiscales (idempotencia de envíos).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

const defaultKeyPrefix = "fiscal:result:"

// RedisConfig conexión a Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisResultCache comparte los resultados aceptados entre instancias del servicio.
type RedisResultCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ repository.FiscalResultCache = (*RedisResultCache)(nil)

// NewRedisResultCache conecta y verifica con PING. ttl 0 = sin expiración.
func NewRedisResultCache(cfg RedisConfig, ttl time.Duration) (*RedisResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: no se pudo conectar a %s: %w", cfg.Addr, err)
	}
	return NewRedisResultCacheWithClient(client, "", ttl), nil
}

// NewRedisResultCacheWithClient usa un cliente existente (pruebas, cliente compartido).
func NewRedisResultCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisResultCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisResultCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Get implementa repository.FiscalResultCache.
func (c *RedisResultCache) Get(ctx context.Context, key string) (*entity.FiscalState, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: leer %s: %w", key, err)
	}
	var st entity.FiscalState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("redis: decodificar %s: %w", key, err)
	}
	return &st, nil
}

// Put guarda el resultado solo si la clave no existe (SETNX): el primer resultado aceptado prevalece.
func (c *RedisResultCache) Put(ctx context.Context, key string, state entity.FiscalState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("redis: codificar %s: %w", key, err)
	}
	if err := c.client.SetNX(ctx, c.keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: guardar %s: %w", key, err)
	}
	return nil
}

// Ping verifica la conexión (health check).
func (c *RedisResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close cierra el cliente.
func (c *RedisResultCache) Close() error {
	return c.client.Close()
}
