package fiscal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

// AbandonReason motivo con el que se marcan los PENDING que superan MaxPendingAge.
const AbandonReason = "timeout: requiere intervención manual"

// Enqueuer destino de los documentos recuperados por el barrido.
type Enqueuer interface {
	Enqueue(ref entity.DocumentRef) error
}

// Abandoner marca REJECTED un documento PENDING.
type Abandoner interface {
	Abandon(ctx context.Context, ref entity.DocumentRef, reason string) error
}

// SweeperConfig política de barrido.
type SweeperConfig struct {
	Interval      time.Duration
	StaleAfter    time.Duration // antigüedad mínima (sin cambios) para reencolar NONE/PENDING
	MaxPendingAge time.Duration // un PENDING emitido hace más que esto se abandona
	BatchSize     int
}

// SweepResult resumen de una pasada.
type SweepResult struct {
	Enqueued  int
	Abandoned int
	Skipped   int // cola llena o error puntual
}

// Sweeper reencola documentos NONE o PENDING olvidados (caída del proceso, cola llena)
// y abandona los que llevan demasiado tiempo sin resolverse. Se asume una sola instancia.
type Sweeper struct {
	sales     repository.SaleRepository
	returns   repository.ReturnRepository
	queue     Enqueuer
	abandoner Abandoner
	cfg       SweeperConfig
	log       zerolog.Logger
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper construye el barrido.
func NewSweeper(sales repository.SaleRepository, returns repository.ReturnRepository, queue Enqueuer, abandoner Abandoner, cfg SweeperConfig, log zerolog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.MaxPendingAge <= 0 {
		cfg.MaxPendingAge = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{
		sales:     sales,
		returns:   returns,
		queue:     queue,
		abandoner: abandoner,
		cfg:       cfg,
		log:       log.With().Str("component", "fiscal_sweeper").Logger(),
		now:       time.Now,
	}
}

// Start ejecuta SweepOnce cada Interval hasta Stop.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
					s.log.Error().Err(err).Msg("barrido fiscal falló")
				}
			}
		}
	}()
	s.log.Info().Dur("interval", s.cfg.Interval).Msg("barrido fiscal iniciado")
}

// Stop detiene el barrido y espera la pasada en curso.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type candidate struct {
	ref       entity.DocumentRef
	status    entity.FiscalStatus
	createdAt time.Time
}

// SweepOnce una pasada completa sobre ventas y notas de crédito.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	cutoff := s.now().Add(-s.cfg.StaleAfter)

	var found []candidate
	for _, status := range []entity.FiscalStatus{entity.FiscalStatusNone, entity.FiscalStatusPending} {
		sales, err := s.sales.ListByFiscalStatus(ctx, status, cutoff, s.cfg.BatchSize)
		if err != nil {
			return res, err
		}
		for _, sale := range sales {
			found = append(found, candidate{
				ref:       entity.DocumentRef{Kind: entity.DocumentKindSale, ID: sale.ID},
				status:    status,
				createdAt: sale.CreatedAt,
			})
		}
		rets, err := s.returns.ListByFiscalStatus(ctx, status, cutoff, s.cfg.BatchSize)
		if err != nil {
			return res, err
		}
		for _, r := range rets {
			found = append(found, candidate{
				ref:       entity.DocumentRef{Kind: entity.DocumentKindReturn, ID: r.ID},
				status:    status,
				createdAt: r.CreatedAt,
			})
		}
	}

	for _, c := range found {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if c.status == entity.FiscalStatusPending && s.now().Sub(c.createdAt) > s.cfg.MaxPendingAge {
			if err := s.abandoner.Abandon(ctx, c.ref, AbandonReason); err != nil {
				s.log.Warn().Err(err).Str("ref", c.ref.String()).Msg("no se pudo abandonar el documento")
				res.Skipped++
				continue
			}
			res.Abandoned++
			continue
		}
		if err := s.queue.Enqueue(c.ref); err != nil {
			res.Skipped++
			continue
		}
		res.Enqueued++
	}

	if res.Enqueued+res.Abandoned+res.Skipped > 0 {
		s.log.Info().Int("enqueued", res.Enqueued).Int("abandoned", res.Abandoned).Int("skipped", res.Skipped).Msg("barrido fiscal")
	}
	return res, nil
}
