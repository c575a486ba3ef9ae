package fiscal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

var (
	// ErrQueueFull la cola de envío está llena; el barrido recogerá el documento.
	ErrQueueFull = errors.New("cola de envío fiscal llena")
	// ErrWorkerStopped el worker ya no acepta trabajos.
	ErrWorkerStopped = errors.New("worker fiscal detenido")
)

// Submitter lo que el worker necesita de la pasarela.
type Submitter interface {
	Submit(ctx context.Context, ref entity.DocumentRef) (*entity.FiscalState, error)
}

// WorkerConfig tamaño de la cola y concurrencia.
type WorkerConfig struct {
	QueueSize  int
	Workers    int
	JobTimeout time.Duration // tope para un envío completo (todos sus intentos)
}

// Worker procesa envíos fiscales en segundo plano, fuera de la transacción de venta.
type Worker struct {
	gateway Submitter
	cfg     WorkerConfig
	log     zerolog.Logger

	queue chan entity.DocumentRef

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker construye el worker; no procesa nada hasta Start.
func NewWorker(gateway Submitter, cfg WorkerConfig, log zerolog.Logger) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &Worker{
		gateway: gateway,
		cfg:     cfg,
		log:     log.With().Str("component", "fiscal_worker").Logger(),
		queue:   make(chan entity.DocumentRef, cfg.QueueSize),
	}
}

// Enqueue agrega el documento sin bloquear.
func (w *Worker) Enqueue(ref entity.DocumentRef) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrWorkerStopped
	}
	select {
	case w.queue <- ref:
		return nil
	default:
		w.log.Warn().Str("ref", ref.String()).Msg("cola fiscal llena; queda para el barrido")
		return ErrQueueFull
	}
}

// Start lanza los goroutines de envío.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
	w.log.Info().Int("workers", w.cfg.Workers).Int("queue", w.cfg.QueueSize).Msg("worker fiscal iniciado")
}

// Stop deja de aceptar trabajos y espera a los envíos en curso hasta que ctx venza.
// Los documentos que quedan en la cola siguen NONE y los recoge el barrido.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.log.Info().Int("pending", len(w.queue)).Msg("worker fiscal detenido")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ref := <-w.queue:
			w.process(ctx, ref)
		}
	}
}

func (w *Worker) process(parent context.Context, ref entity.DocumentRef) {
	// El envío no hereda la cancelación del worker: un Stop no debe dejar un documento a medio enviar.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), w.cfg.JobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Str("ref", ref.String()).Msg("panic en envío fiscal")
		}
	}()

	st, err := w.gateway.Submit(ctx, ref)
	if err != nil {
		w.log.Warn().Err(err).Str("ref", ref.String()).Msg("envío fiscal sin éxito")
		return
	}
	w.log.Debug().Str("ref", ref.String()).Str("status", st.Status.String()).Msg("envío fiscal procesado")
}
