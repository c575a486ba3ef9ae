// Package fiscal conduce el envío de comprobantes a la pasarela fiscal (PSE):
// máquina de estados NONE → PENDING → {ACCEPTED, REJECTED}, reintentos con backoff,
// idempotencia por (tipo, serie, número) y barrido de documentos olvidados.
// Las fallas fiscales nunca deshacen una venta ya emitida.
package fiscal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-fiscal-api/internal/application/audit"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/pse"
)

// Config política de envío.
type Config struct {
	AttemptTimeout time.Duration // timeout propio de cada intento
	MaxAttempts    int
	BaseBackoff    time.Duration // espera base; se duplica por intento
	MaxBackoff     time.Duration
	StaleAfter     time.Duration // un PENDING sin cambios por más de esto se puede reenviar
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 30 * time.Second,
		MaxAttempts:    5,
		BaseBackoff:    2 * time.Second,
		MaxBackoff:     30 * time.Second,
		StaleAfter:     5 * time.Minute,
	}
}

// Gateway envía documentos a la pasarela y persiste el subestado fiscal.
type Gateway struct {
	sales     repository.SaleRepository
	returns   repository.ReturnRepository
	attempts  repository.FiscalAttemptRepository
	cache     repository.FiscalResultCache
	submitter pse.Submitter
	audit     audit.Sink
	cfg       Config
	log       zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGateway construye la pasarela. cache y sink pueden ser nil.
func NewGateway(
	sales repository.SaleRepository,
	returns repository.ReturnRepository,
	attempts repository.FiscalAttemptRepository,
	cache repository.FiscalResultCache,
	submitter pse.Submitter,
	sink audit.Sink,
	cfg Config,
	log zerolog.Logger,
) *Gateway {
	def := DefaultConfig()
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	return &Gateway{
		sales:     sales,
		returns:   returns,
		attempts:  attempts,
		cache:     cache,
		submitter: submitter,
		audit:     sink,
		cfg:       cfg,
		log:       log.With().Str("component", "fiscal").Logger(),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// submitMode quién dispara el envío; define desde qué estados se puede reclamar el documento.
type submitMode int

const (
	modeAuto   submitMode = iota // cola o barrido: NONE o PENDING vencido
	modeManual                   // reenvío del operador: además REJECTED
)

// Submit envía el documento si aún no fue resuelto.
//
//   - ACCEPTED: devuelve el estado guardado sin llamar a la pasarela.
//   - Resultado en caché para (tipo, serie, número): lo aplica sin llamar a la pasarela.
//   - PENDING en curso (reciente): devuelve el estado actual; otro proceso lo está enviando.
//
// Si el envío termina REJECTED devuelve el estado junto a un error que envuelve
// domain.ErrGatewayRejected o domain.ErrGatewayTimeout.
func (g *Gateway) Submit(ctx context.Context, ref entity.DocumentRef) (*entity.FiscalState, error) {
	return g.submit(ctx, ref, modeAuto)
}

// Resubmit reintento manual: desde REJECTED, NONE o un PENDING vencido.
// Un documento ACCEPTED devuelve su resultado guardado; un PENDING en curso devuelve domain.ErrConflict.
func (g *Gateway) Resubmit(ctx context.Context, ref entity.DocumentRef) (*entity.FiscalState, error) {
	doc, err := g.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if doc.state.Status == entity.FiscalStatusPending && !g.stale(doc) {
		return nil, fmt.Errorf("%w: envío fiscal en curso", domain.ErrConflict)
	}
	return audit.Run(ctx, g.audit, "fiscal.resubmit", ref.String(), &doc.state, func() (*entity.FiscalState, error) {
		return g.submit(ctx, ref, modeManual)
	})
}

// Attempts historial de intentos del documento.
func (g *Gateway) Attempts(ctx context.Context, ref entity.DocumentRef) ([]*entity.FiscalAttempt, error) {
	if _, err := g.load(ctx, ref); err != nil {
		return nil, err
	}
	return g.attempts.ListByDocument(ctx, ref.Kind, ref.ID)
}

// Abandon marca REJECTED un PENDING que nunca se resolvió, para intervención manual.
func (g *Gateway) Abandon(ctx context.Context, ref entity.DocumentRef, reason string) error {
	doc, err := g.load(ctx, ref)
	if err != nil {
		return err
	}
	if doc.state.Status != entity.FiscalStatusPending {
		return fmt.Errorf("%w: estado %s", domain.ErrConflict, doc.state.Status)
	}
	st := doc.state
	st.Status = entity.FiscalStatusRejected
	st.LastError = reason
	resolved := g.now()
	st.ResolvedAt = &resolved
	if err := g.save(ctx, ref, entity.FiscalStatusPending, &st); err != nil {
		return err
	}
	g.log.Warn().Str("document", doc.number).Str("reason", reason).Msg("envío fiscal abandonado")
	return nil
}

func (g *Gateway) submit(ctx context.Context, ref entity.DocumentRef, mode submitMode) (*entity.FiscalState, error) {
	doc, err := g.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	logger := g.log.With().Str("document", doc.number).Str("ref", ref.String()).Logger()

	// 0. Terminal o anulado
	if doc.state.Status == entity.FiscalStatusAccepted {
		return &doc.state, nil
	}
	if doc.void {
		return nil, fmt.Errorf("%w: documento anulado", domain.ErrConflict)
	}

	// 1. Idempotencia: ¿la autoridad ya aceptó este (tipo, serie, número)?
	if cached := g.cached(ctx, doc); cached != nil {
		st := doc.state
		st.Status = entity.FiscalStatusAccepted
		st.Hash, st.XMLURL, st.CDRURL = cached.Hash, cached.XMLURL, cached.CDRURL
		st.PDFTicketURL, st.PDFA4URL = cached.PDFTicketURL, cached.PDFA4URL
		st.LastError = ""
		st.ResolvedAt = cached.ResolvedAt
		if err := g.save(ctx, ref, doc.state.Status, &st); err != nil {
			return g.reloadOnConflict(ctx, ref, err)
		}
		now := g.now()
		g.recordAttempt(ctx, ref, 0, now, now, entity.AttemptOutcomeCached, 0, "")
		logger.Info().Msg("resultado fiscal recuperado del caché")
		return &st, nil
	}

	// 2. Reclamar el documento (CAS sobre estado y versión: dos lectores del mismo
	// PENDING vencido no pueden reclamarlo ambos)
	switch doc.state.Status {
	case entity.FiscalStatusNone:
	case entity.FiscalStatusPending:
		if !g.stale(doc) {
			return &doc.state, nil
		}
	case entity.FiscalStatusRejected:
		if mode != modeManual {
			return &doc.state, nil
		}
	}
	claimed := doc.state
	claimed.Status = entity.FiscalStatusPending
	submitted := g.now()
	claimed.SubmittedAt = &submitted
	claimed.ResolvedAt = nil
	if err := g.save(ctx, ref, doc.state.Status, &claimed); err != nil {
		return g.reloadOnConflict(ctx, ref, err)
	}

	// 3. Intentos
	var (
		lastErr    error
		lastStatus int
	)
	for n := 1; n <= g.cfg.MaxAttempts; n++ {
		actx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		started := g.now()
		res, err := g.submitter.Submit(actx, doc.request)
		cancel()
		finished := g.now()
		claimed.Attempts++

		if err == nil {
			switch res.Status {
			case pse.AuthorityAccepted:
				g.recordAttempt(ctx, ref, n, started, finished, entity.AttemptOutcomeAccepted, res.HTTPStatus, "")
				return g.finishAccepted(ctx, doc, claimed, res, logger)
			case pse.AuthorityRejected:
				g.recordAttempt(ctx, ref, n, started, finished, entity.AttemptOutcomeRejected, res.HTTPStatus, res.Message)
				return g.finishRejected(ctx, doc, claimed, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, res.Message), logger)
			default:
				g.recordAttempt(ctx, ref, n, started, finished, entity.AttemptOutcomePending, res.HTTPStatus, res.Message)
				return g.finishPending(ctx, doc, claimed, res, logger)
			}
		}

		status := pse.StatusCode(err)
		if errors.Is(err, domain.ErrGatewayRejected) {
			g.recordAttempt(ctx, ref, n, started, finished, entity.AttemptOutcomeRejected, status, err.Error())
			return g.finishRejected(ctx, doc, claimed, err, logger)
		}
		outcome := entity.AttemptOutcomeUnavailable
		if errors.Is(err, domain.ErrGatewayTimeout) || errors.Is(err, context.DeadlineExceeded) {
			outcome = entity.AttemptOutcomeTimeout
		}
		g.recordAttempt(ctx, ref, n, started, finished, outcome, status, err.Error())
		lastErr, lastStatus = err, status
		logger.Warn().Err(err).Int("attempt", n).Int("http_status", status).Msg("intento fiscal fallido")

		if ctx.Err() != nil {
			return g.finishRejected(ctx, doc, claimed,
				fmt.Errorf("%w: envío abandonado: %v", domain.ErrGatewayTimeout, ctx.Err()), logger)
		}
		if n == g.cfg.MaxAttempts {
			break
		}
		if err := g.sleep(ctx, g.backoff(n)); err != nil {
			return g.finishRejected(ctx, doc, claimed,
				fmt.Errorf("%w: envío abandonado: %v", domain.ErrGatewayTimeout, err), logger)
		}
	}

	// 4. Presupuesto agotado
	if !errors.Is(lastErr, domain.ErrGatewayTimeout) {
		lastErr = fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, lastErr)
	}
	logger.Error().Err(lastErr).Int("attempts", g.cfg.MaxAttempts).Int("http_status", lastStatus).Msg("reintentos fiscales agotados")
	return g.finishRejected(ctx, doc, claimed, fmt.Errorf("%w: reintentos agotados: %w", domain.ErrGatewayRejected, lastErr), logger)
}

func (g *Gateway) finishAccepted(ctx context.Context, doc *document, st entity.FiscalState, res *pse.Result, logger zerolog.Logger) (*entity.FiscalState, error) {
	st.Status = entity.FiscalStatusAccepted
	applyArtifacts(&st, res)
	st.LastError = ""
	resolved := g.now()
	st.ResolvedAt = &resolved
	// primero el caché: si el CAS pierde (p. ej. contra Abandon) el próximo envío adopta la aceptación
	if g.cache != nil {
		if err := g.cache.Put(context.WithoutCancel(ctx), doc.cacheKey, st); err != nil {
			logger.Warn().Err(err).Msg("no se pudo guardar el resultado en caché")
		}
	}
	if err := g.save(ctx, doc.ref, entity.FiscalStatusPending, &st); err != nil {
		logger.Error().Err(err).Str("hash", st.Hash).Msg("aceptación fiscal no persistida")
		return nil, err
	}
	logger.Info().Str("hash", st.Hash).Int("attempts", st.Attempts).Msg("documento aceptado")
	return &st, nil
}

func (g *Gateway) finishPending(ctx context.Context, doc *document, st entity.FiscalState, res *pse.Result, logger zerolog.Logger) (*entity.FiscalState, error) {
	st.Status = entity.FiscalStatusPending
	applyArtifacts(&st, res)
	st.LastError = res.Message
	submitted := g.now()
	st.SubmittedAt = &submitted
	if err := g.save(ctx, doc.ref, entity.FiscalStatusPending, &st); err != nil {
		return nil, err
	}
	logger.Info().Msg("la autoridad aún no resuelve; queda PENDING")
	return &st, nil
}

func (g *Gateway) finishRejected(ctx context.Context, doc *document, st entity.FiscalState, cause error, logger zerolog.Logger) (*entity.FiscalState, error) {
	st.Status = entity.FiscalStatusRejected
	st.LastError = cause.Error()
	resolved := g.now()
	st.ResolvedAt = &resolved
	if err := g.save(ctx, doc.ref, entity.FiscalStatusPending, &st); err != nil {
		return nil, err
	}
	logger.Warn().Err(cause).Msg("documento rechazado")
	return &st, cause
}

func applyArtifacts(st *entity.FiscalState, res *pse.Result) {
	if res.Hash != "" {
		st.Hash = res.Hash
	}
	if res.XMLURL != "" {
		st.XMLURL = res.XMLURL
	}
	if res.CDRURL != "" {
		st.CDRURL = res.CDRURL
	}
	if res.PDFTicketURL != "" {
		st.PDFTicketURL = res.PDFTicketURL
	}
	if res.PDFA4URL != "" {
		st.PDFA4URL = res.PDFA4URL
	}
}

func (g *Gateway) cached(ctx context.Context, doc *document) *entity.FiscalState {
	if g.cache == nil {
		return nil
	}
	st, err := g.cache.Get(ctx, doc.cacheKey)
	if err != nil {
		g.log.Warn().Err(err).Str("key", doc.cacheKey).Msg("caché fiscal no disponible")
		return nil
	}
	if st == nil || st.Status != entity.FiscalStatusAccepted {
		return nil
	}
	return st
}

// reloadOnConflict: otro proceso cambió el estado antes que nosotros; se devuelve el actual.
func (g *Gateway) reloadOnConflict(ctx context.Context, ref entity.DocumentRef, err error) (*entity.FiscalState, error) {
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}
	doc, lerr := g.load(ctx, ref)
	if lerr != nil {
		return nil, lerr
	}
	return &doc.state, nil
}

func (g *Gateway) stale(doc *document) bool {
	if doc.state.SubmittedAt == nil {
		return true
	}
	return g.now().Sub(*doc.state.SubmittedAt) >= g.cfg.StaleAfter
}

func (g *Gateway) recordAttempt(ctx context.Context, ref entity.DocumentRef, n int, started, finished time.Time, outcome string, httpStatus int, msg string) {
	a := &entity.FiscalAttempt{
		DocumentKind: ref.Kind,
		DocumentID:   ref.ID,
		Number:       n,
		StartedAt:    started,
		FinishedAt:   finished,
		Outcome:      outcome,
		HTTPStatus:   httpStatus,
		Error:        msg,
	}
	if err := g.attempts.Create(context.WithoutCancel(ctx), a); err != nil {
		g.log.Warn().Err(err).Str("ref", ref.String()).Msg("no se pudo registrar el intento fiscal")
	}
}

// backoff: base·2^(n-1) acotado por MaxBackoff.
func (g *Gateway) backoff(attempt int) time.Duration {
	if g.cfg.BaseBackoff <= 0 {
		return 0
	}
	d := g.cfg.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if g.cfg.MaxBackoff > 0 && d >= g.cfg.MaxBackoff {
			return g.cfg.MaxBackoff
		}
	}
	if g.cfg.MaxBackoff > 0 && d > g.cfg.MaxBackoff {
		d = g.cfg.MaxBackoff
	}
	return d
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
