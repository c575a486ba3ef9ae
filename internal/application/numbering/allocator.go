// Package numbering asigna correlativos por (tipo de documento, serie).
package numbering

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

// Config parámetros del bucle compare-and-swap.
type Config struct {
	MaxAttempts int           // conflictos tolerados antes de ErrAllocationContention
	BaseBackoff time.Duration // espera base; se duplica por intento
	MaxBackoff  time.Duration
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{MaxAttempts: 8, BaseBackoff: 5 * time.Millisecond, MaxBackoff: 200 * time.Millisecond}
}

// Allocator entrega correlativos únicos y crecientes (+1 por llamada) por serie.
// Cada asignación exitosa queda confirmada de inmediato, independiente de la
// transacción del documento: un número entregado nunca se reutiliza.
type Allocator struct {
	counters repository.SeriesCounterRepository
	burned   repository.BurnedNumberRepository
	cfg      Config
	log      zerolog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewAllocator construye el asignador. burned puede ser nil (los quemados solo se registran en el log).
func NewAllocator(counters repository.SeriesCounterRepository, burned repository.BurnedNumberRepository, cfg Config, log zerolog.Logger) *Allocator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Allocator{counters: counters, burned: burned, cfg: cfg, log: log, sleep: sleepCtx}
}

// NextNumber lee last_number e intenta escribir last_number+1 solo si no cambió.
// Ante conflicto reintenta con backoff exponencial con jitter; agotados los intentos
// devuelve domain.ErrAllocationContention. Una llamada fallida no consume número.
func (a *Allocator) NextNumber(ctx context.Context, documentCode, series string) (int64, error) {
	documentCode = strings.TrimSpace(documentCode)
	series = strings.TrimSpace(series)
	if documentCode == "" || series == "" {
		return 0, domain.ErrInvalidInput
	}

	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		current, err := a.current(ctx, documentCode, series)
		if err != nil {
			return 0, err
		}
		next := current.LastNumber + 1
		ok, err := a.counters.CompareAndSwap(ctx, documentCode, series, current.LastNumber, next)
		if err != nil {
			return 0, fmt.Errorf("asignar correlativo %s/%s: %w", documentCode, series, err)
		}
		if ok {
			return next, nil
		}

		a.log.Debug().
			Str("document_code", documentCode).
			Str("series", series).
			Int("attempt", attempt).
			Msg("conflicto de correlativo, reintentando")
		if attempt == a.cfg.MaxAttempts {
			break
		}
		if err := a.sleep(ctx, a.backoff(attempt)); err != nil {
			return 0, err
		}
	}

	a.log.Warn().
		Str("document_code", documentCode).
		Str("series", series).
		Int("max_attempts", a.cfg.MaxAttempts).
		Msg("reintentos de correlativo agotados")
	return 0, domain.ErrAllocationContention
}

// Peek devuelve el contador sin modificarlo (LastNumber 0 si la serie no existe).
func (a *Allocator) Peek(ctx context.Context, documentCode, series string) (*entity.SeriesCounter, error) {
	c, err := a.counters.Get(ctx, documentCode, series)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &entity.SeriesCounter{DocumentCode: documentCode, Series: series}, nil
	}
	return c, nil
}

// Burn deja constancia de un correlativo consumido sin documento (mejor esfuerzo, nunca falla).
func (a *Allocator) Burn(ctx context.Context, documentCode, series string, number int64, cause error) {
	reason := "desconocido"
	if cause != nil {
		reason = cause.Error()
	}
	a.log.Error().
		Str("document_code", documentCode).
		Str("series", series).
		Int64("number", number).
		Str("reason", reason).
		Msg("correlativo consumido sin documento")
	if a.burned == nil {
		return
	}
	// El ctx del caller puede estar cancelado; el registro debe sobrevivir.
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.burned.Record(bctx, &entity.BurnedNumber{
		DocumentCode: documentCode,
		Series:       series,
		Number:       number,
		Reason:       reason,
	}); err != nil {
		a.log.Error().Err(err).Int64("number", number).Msg("no se pudo registrar el correlativo quemado")
	}
}

// Burned lista los correlativos quemados de una serie (conciliación).
func (a *Allocator) Burned(ctx context.Context, documentCode, series string) ([]*entity.BurnedNumber, error) {
	if a.burned == nil {
		return nil, nil
	}
	return a.burned.ListBySeries(ctx, documentCode, series)
}

func (a *Allocator) current(ctx context.Context, code, series string) (*entity.SeriesCounter, error) {
	c, err := a.counters.Get(ctx, code, series)
	if err != nil {
		return nil, fmt.Errorf("leer contador %s/%s: %w", code, series, err)
	}
	if c != nil {
		return c, nil
	}
	if err := a.counters.EnsureExists(ctx, code, series); err != nil {
		return nil, fmt.Errorf("crear contador %s/%s: %w", code, series, err)
	}
	c, err = a.counters.Get(ctx, code, series)
	if err != nil {
		return nil, fmt.Errorf("leer contador %s/%s: %w", code, series, err)
	}
	if c == nil {
		return nil, fmt.Errorf("contador %s/%s no encontrado tras crearlo", code, series)
	}
	return c, nil
}

// backoff: base·2^(n-1) acotado por MaxBackoff, con jitter uniforme en [d/2, d].
func (a *Allocator) backoff(attempt int) time.Duration {
	if a.cfg.BaseBackoff <= 0 {
		return 0
	}
	d := a.cfg.BaseBackoff << uint(attempt-1)
	if a.cfg.MaxBackoff > 0 && (d > a.cfg.MaxBackoff || d <= 0) {
		d = a.cfg.MaxBackoff
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
