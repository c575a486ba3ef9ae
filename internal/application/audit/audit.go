// Package audit envuelve operaciones sensibles (anulaciones, ajustes de stock,
// reenvíos fiscales) y registra el estado antes y después de ejecutarlas.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Entry registro de auditoría.
type Entry struct {
	Action   string
	EntityID string
	Actor    string
	Before   any
	After    any
	Err      error
	At       time.Time
	Elapsed  time.Duration
}

// Sink destino de los registros. La captura persistente vive fuera de este servicio.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

type actorKey struct{}

// WithActor asocia el operador que ejecuta la acción al contexto.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom devuelve el operador guardado con WithActor ("" si no hay).
func ActorFrom(ctx context.Context) string {
	s, _ := ctx.Value(actorKey{}).(string)
	return s
}

// Run ejecuta fn y registra before/after en sink. Si fn falla, After queda vacío y se registra el error.
// sink nil desactiva la auditoría.
func Run[T any](ctx context.Context, sink Sink, action, entityID string, before T, fn func() (T, error)) (T, error) {
	start := time.Now()
	after, err := fn()
	if sink == nil {
		return after, err
	}
	e := Entry{
		Action:   action,
		EntityID: entityID,
		Actor:    ActorFrom(ctx),
		Before:   before,
		Err:      err,
		At:       start,
		Elapsed:  time.Since(start),
	}
	if err == nil {
		e.After = after
	}
	sink.Record(ctx, e)
	return after, err
}

// LogSink escribe cada registro como una línea estructurada de zerolog.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink construye el sink sobre el logger de la aplicación.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

// Record implementa Sink.
func (s *LogSink) Record(_ context.Context, e Entry) {
	ev := s.log.Info()
	if e.Err != nil {
		ev = s.log.Warn().Err(e.Err)
	}
	ev.Str("action", e.Action).
		Str("entity_id", e.EntityID).
		Str("actor", e.Actor).
		Interface("before", e.Before).
		Interface("after", e.After).
		Dur("elapsed", e.Elapsed).
		Time("at", e.At).
		Msg("auditoría")
}
