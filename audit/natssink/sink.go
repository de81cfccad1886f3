package natssink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/persontric"
	"github.com/nats-io/nats.go"
)

// DefaultSubject prefixes every published subject.
const DefaultSubject = "persontric.audit"

// Publisher is the subset of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var (
	_ Publisher            = (*nats.Conn)(nil)
	_ persontric.AuditSink = (*Sink)(nil)
)

// Sink implements persontric.AuditSink over a NATS publisher.
type Sink struct {
	pub      Publisher
	subject  string
	logger   *slog.Logger
	failures atomic.Uint64
}

// Option customizes a Sink.
type Option func(*Sink)

// WithSubject replaces DefaultSubject.
func WithSubject(subject string) Option {
	return func(s *Sink) {
		if subject != "" {
			s.subject = subject
		}
	}
}

// WithLogger sets the logger used for publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Sink publishing through pub.
func New(pub Publisher, opts ...Option) *Sink {
	s := &Sink{
		pub:     pub,
		subject: DefaultSubject,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit publishes event. Encoding or publish failures are counted and logged; the
// audit path never returns errors to the engine.
func (s *Sink) Emit(ctx context.Context, event persontric.AuditEvent) {
	if ctx.Err() != nil {
		s.failures.Add(1)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.fail(event, err)
		return
	}

	if err := s.pub.Publish(s.SubjectFor(event.EventType), data); err != nil {
		s.fail(event, err)
	}
}

// SubjectFor returns the subject an event of eventType is published on.
func (s *Sink) SubjectFor(eventType string) string {
	if eventType == "" {
		return s.subject
	}
	return s.subject + "." + eventType
}

// Failures returns the number of events that could not be published.
func (s *Sink) Failures() uint64 {
	return s.failures.Load()
}

func (s *Sink) fail(event persontric.AuditEvent, err error) {
	s.failures.Add(1)
	s.logger.Warn("audit publish failed",
		slog.String("event_type", event.EventType),
		slog.String("event_id", event.ID),
		slog.Any("error", err),
	)
}

// Config holds NATS connection settings.
type Config struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int
}

// DefaultConfig returns settings for a local server with unlimited reconnects.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "persontric-audit",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// Connect dials NATS with connection lifecycle events routed to logger.
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}
