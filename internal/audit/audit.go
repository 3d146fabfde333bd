// Package audit registra eventos de seguridad (enrolamientos, emisión y
// revocación de tokens, logout) en uno o más sinks.
//
// Los fallos de un sink se loguean y nunca se propagan al flujo OAuth.
package audit

import (
	"context"
	"time"

	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

// Tipos de evento.
const (
	EventClientRegistered = "client.registered"
	EventUserEnrolled     = "user.enrolled"
	EventAuthSucceeded    = "auth.succeeded"
	EventAuthDenied       = "auth.denied"
	EventCodeExchanged    = "code.exchanged"
	EventTokenRefreshed   = "token.refreshed"
	EventTokenRevoked     = "token.revoked"
	EventSubjectLoggedOut = "subject.logged_out"
)

// Event es un registro de auditoría.
type Event struct {
	Type     string            `json:"type"`
	ClientID string            `json:"client_id,omitempty"`
	UserID   string            `json:"user_id,omitempty"`
	Outcome  string            `json:"outcome,omitempty"`
	Detail   map[string]string `json:"detail,omitempty"`
	At       time.Time         `json:"at"`
}

// Sink persiste o publica eventos.
type Sink interface {
	Write(ctx context.Context, e Event) error
	Close() error
}

// Recorder es el punto de entrada que usan los services.
type Recorder struct {
	sink Sink
	now  func() time.Time
}

// NewRecorder crea un Recorder sobre sink. Un sink nil descarta eventos.
func NewRecorder(sink Sink) *Recorder {
	if sink == nil {
		sink = Nop{}
	}
	return &Recorder{sink: sink, now: time.Now}
}

// Record completa At y escribe el evento. Nunca falla.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil {
		return
	}
	if e.At.IsZero() {
		e.At = r.now().UTC()
	}
	if err := r.sink.Write(ctx, e); err != nil {
		logger.From(ctx).Warn("audit sink write failed",
			logger.Component("audit"), logger.String("event", e.Type), logger.Err(err))
	}
}

// Close cierra el sink.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.sink.Close()
}

// Nop descarta eventos.
type Nop struct{}

func (Nop) Write(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }

// LogSink escribe eventos como entradas zap con el logger del contexto.
type LogSink struct{}

func (LogSink) Write(ctx context.Context, e Event) error {
	fields := []logger.Field{
		logger.Component("audit"),
		logger.String("event", e.Type),
		logger.Outcome(e.Outcome),
		logger.Any("at", e.At),
	}
	if e.ClientID != "" {
		fields = append(fields, logger.ClientID(e.ClientID))
	}
	if e.UserID != "" {
		fields = append(fields, logger.UserID(e.UserID))
	}
	for k, v := range e.Detail {
		fields = append(fields, logger.String("detail."+k, v))
	}
	logger.From(ctx).Info("audit", fields...)
	return nil
}

func (LogSink) Close() error { return nil }

// Multi reparte cada evento a todos los sinks; devuelve el primer error.
type Multi []Sink

func (m Multi) Write(ctx context.Context, e Event) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
