package persontric

import (
	"errors"
	"log/slog"
	"time"
)

// Builder assembles an [Engine]. S and P are the typed session and person attribute
// structs of the deployment.
//
// A Builder is single-use: the second Build call fails.
type Builder[S, P any] struct {
	config  Config
	adapter Adapter

	sessionAttributes AttributeMapper[S]
	personAttributes  AttributeMapper[P]

	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New[S, P any]() *Builder[S, P] {
	return &Builder[S, P]{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder[S, P]) WithConfig(cfg Config) *Builder[S, P] {
	b.config = cfg
	return b
}

// WithAdapter sets the persistence adapter. Required.
func (b *Builder[S, P]) WithAdapter(adapter Adapter) *Builder[S, P] {
	b.adapter = adapter
	return b
}

// WithSessionAttributes sets the mapper from stored session attributes to S.
// Without it every session carries the zero S.
func (b *Builder[S, P]) WithSessionAttributes(mapper AttributeMapper[S]) *Builder[S, P] {
	b.sessionAttributes = mapper
	return b
}

// WithPersonAttributes sets the mapper from stored person attributes to P.
// Without it every person carries the zero P.
func (b *Builder[S, P]) WithPersonAttributes(mapper AttributeMapper[P]) *Builder[S, P] {
	b.personAttributes = mapper
	return b
}

// WithLogger sets the structured logger. The default discards all records.
func (b *Builder[S, P]) WithLogger(logger *slog.Logger) *Builder[S, P] {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination for audit events. It has no effect unless
// Config.Audit.Enabled is true.
func (b *Builder[S, P]) WithAuditSink(sink AuditSink) *Builder[S, P] {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source used for expiry decisions and cookie dates.
func (b *Builder[S, P]) WithClock(now func() time.Time) *Builder[S, P] {
	b.now = now
	return b
}

// WithSessionTTL overrides Config.SessionTTL.
func (b *Builder[S, P]) WithSessionTTL(ttl time.Duration) *Builder[S, P] {
	b.config.SessionTTL = ttl
	return b
}

// WithMetricsEnabled toggles Config.Metrics.Enabled.
func (b *Builder[S, P]) WithMetricsEnabled(enabled bool) *Builder[S, P] {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles Config.Metrics.EnableLatencyHistograms.
func (b *Builder[S, P]) WithLatencyHistograms(enabled bool) *Builder[S, P] {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns an immutable Engine.
func (b *Builder[S, P]) Build() (*Engine[S, P], error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.adapter == nil {
		return nil, ErrAdapterRequired
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	sessionAttributes := b.sessionAttributes
	if sessionAttributes == nil {
		sessionAttributes = func(Attributes) S {
			var zero S
			return zero
		}
	}

	personAttributes := b.personAttributes
	if personAttributes == nil {
		personAttributes = func(Attributes) P {
			var zero P
			return zero
		}
	}

	engine := &Engine[S, P]{
		config:            cfg,
		adapter:           b.adapter,
		sessionAttributes: sessionAttributes,
		personAttributes:  personAttributes,
		logger:            logger,
		now:               now,
		audit:             newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:           NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
