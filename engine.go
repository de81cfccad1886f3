package persontric

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/persontric/internal"
)

// Engine runs the session lifecycle against an [Adapter] and builds the cookie and
// bearer transport for session ids.
//
// Engine is immutable after [Builder.Build] and safe for concurrent use. Concurrent
// renewals of the same session are last-write-wins; both writers move the expiry forward.
type Engine[S, P any] struct {
	config            Config
	adapter           Adapter
	sessionAttributes AttributeMapper[S]
	personAttributes  AttributeMapper[P]
	logger            *slog.Logger
	now               func() time.Time
	audit             *auditDispatcher
	metrics           *Metrics
}

// Close flushes queued audit events and stops the dispatcher. The adapter is owned by
// the caller and is not closed.
func (e *Engine[S, P]) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events discarded under backpressure.
func (e *Engine[S, P]) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine[S, P]) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// SessionTTL returns the configured session lifetime.
func (e *Engine[S, P]) SessionTTL() time.Duration {
	return e.config.SessionTTL
}

func (e *Engine[S, P]) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// GetPersonSessions lists the live sessions of personID in adapter order. Expired
// records are skipped but not deleted. Every returned session has Fresh set to false.
func (e *Engine[S, P]) GetPersonSessions(ctx context.Context, personID string) ([]Session[S], error) {
	if e == nil || e.adapter == nil {
		return nil, ErrEngineNotReady
	}

	records, err := e.adapter.GetPersonSessions(ctx, personID)
	if err != nil {
		return nil, e.adapterError(ctx, "get_person_sessions", err)
	}

	now := e.now()
	out := make([]Session[S], 0, len(records))
	for i := range records {
		if !now.Before(records[i].ExpiresAt) {
			continue
		}
		out = append(out, e.toSession(&records[i], false))
	}

	return out, nil
}

// ValidateSession resolves sessionID to its session and person.
//
// Unknown, expired, and orphaned sessions yield (nil, nil, nil); the latter two are
// deleted first. A session past half of its lifetime is renewed to now+SessionTTL and
// returned with Fresh set, and the caller should re-issue its cookie.
func (e *Engine[S, P]) ValidateSession(ctx context.Context, sessionID string) (*Session[S], *Person[P], error) {
	if e == nil || e.adapter == nil {
		return nil, nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	if sessionID == "" {
		e.metricInc(MetricSessionNotFound)
		return nil, nil, nil
	}

	dbSession, dbPerson, err := e.adapter.GetSessionAndPerson(ctx, sessionID)
	if err != nil {
		return nil, nil, e.adapterError(ctx, "get_session_and_person", err)
	}
	if dbSession == nil {
		e.metricInc(MetricSessionNotFound)
		return nil, nil, nil
	}

	if dbPerson == nil {
		if err := e.adapter.DeleteSession(ctx, sessionID); err != nil {
			return nil, nil, e.adapterError(ctx, "delete_session", err)
		}
		e.metricInc(MetricSessionOrphaned)
		e.logger.DebugContext(ctx, "orphaned session purged", slog.String("person_id", dbSession.PersonID))
		e.emitAudit(ctx, auditEventSessionOrphaned, true, dbSession.PersonID, sessionID, nil, nil)
		return nil, nil, nil
	}

	now := e.now()
	if !now.Before(dbSession.ExpiresAt) {
		if err := e.adapter.DeleteSession(ctx, sessionID); err != nil {
			return nil, nil, e.adapterError(ctx, "delete_session", err)
		}
		e.metricInc(MetricSessionExpired)
		e.logger.DebugContext(ctx, "expired session purged", slog.String("person_id", dbSession.PersonID))
		e.emitAudit(ctx, auditEventSessionExpired, true, dbSession.PersonID, sessionID, nil, nil)
		return nil, nil, nil
	}

	fresh := false
	renewAt := dbSession.ExpiresAt.Add(-e.config.SessionTTL / 2)
	if !now.Before(renewAt) {
		expiresAt := now.Add(e.config.SessionTTL)
		if err := e.adapter.UpdateSessionExpiration(ctx, sessionID, expiresAt); err != nil {
			return nil, nil, e.adapterError(ctx, "update_session_expiration", err)
		}
		dbSession.ExpiresAt = expiresAt
		fresh = true

		e.metricInc(MetricSessionRotated)
		e.logger.DebugContext(ctx, "session renewed",
			slog.String("person_id", dbSession.PersonID),
			slog.Time("expires_at", expiresAt),
		)
		e.emitAudit(ctx, auditEventSessionRotated, true, dbSession.PersonID, sessionID, nil, nil)
	}

	e.metricInc(MetricSessionValidated)

	session := e.toSession(dbSession, fresh)
	person := &Person[P]{
		ID:         dbPerson.ID,
		Attributes: e.personAttributes(dbPerson.Attributes),
	}
	return &session, person, nil
}

// CreateSession persists a new session for personID under a freshly generated id.
func (e *Engine[S, P]) CreateSession(ctx context.Context, personID string, attributes Attributes) (*Session[S], error) {
	if e == nil || e.adapter == nil {
		return nil, ErrEngineNotReady
	}

	sessionID, err := internal.NewSessionID()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSessionCreationFailed, err)
		e.emitAudit(ctx, auditEventSessionCreateFailure, false, personID, "", err, nil)
		return nil, err
	}

	return e.CreateSessionWithID(ctx, sessionID, personID, attributes)
}

// CreateSessionWithID persists a new session under an id chosen by the caller. The id
// must be unique and unguessable; the engine does not check either property.
func (e *Engine[S, P]) CreateSessionWithID(ctx context.Context, sessionID, personID string, attributes Attributes) (*Session[S], error) {
	if e == nil || e.adapter == nil {
		return nil, ErrEngineNotReady
	}
	if sessionID == "" {
		e.emitAudit(ctx, auditEventSessionCreateFailure, false, personID, "", ErrInvalidSessionID, nil)
		return nil, ErrInvalidSessionID
	}
	if personID == "" {
		e.emitAudit(ctx, auditEventSessionCreateFailure, false, "", "", ErrInvalidPersonID, nil)
		return nil, ErrInvalidPersonID
	}

	record := DatabaseSession{
		ID:         sessionID,
		PersonID:   personID,
		ExpiresAt:  e.now().Add(e.config.SessionTTL),
		Attributes: attributes.Clone(),
	}

	if err := e.adapter.SetSession(ctx, record); err != nil {
		err = e.adapterError(ctx, "set_session", err)
		e.emitAudit(ctx, auditEventSessionCreateFailure, false, personID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, personID, sessionID, nil, nil)

	session := e.toSession(&record, true)
	return &session, nil
}

// InvalidateSession deletes sessionID. Unknown ids are not an error.
func (e *Engine[S, P]) InvalidateSession(ctx context.Context, sessionID string) error {
	if e == nil || e.adapter == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return nil
	}

	err := e.adapter.DeleteSession(ctx, sessionID)
	if err != nil {
		err = e.adapterError(ctx, "delete_session", err)
	} else {
		e.metricInc(MetricSessionInvalidated)
	}
	e.emitAudit(ctx, auditEventSessionInvalidated, err == nil, "", sessionID, err, nil)
	return err
}

// InvalidatePersonSessions deletes every session owned by personID.
func (e *Engine[S, P]) InvalidatePersonSessions(ctx context.Context, personID string) error {
	if e == nil || e.adapter == nil {
		return ErrEngineNotReady
	}
	if personID == "" {
		return ErrInvalidPersonID
	}

	err := e.adapter.DeletePersonSessions(ctx, personID)
	if err != nil {
		err = e.adapterError(ctx, "delete_person_sessions", err)
	} else {
		e.metricInc(MetricPersonSessionsInvalidated)
	}
	e.emitAudit(ctx, auditEventPersonSessionsInvalidated, err == nil, personID, "", err, nil)
	return err
}

// DeleteExpiredSessions asks the adapter to remove every expired session. The engine
// never schedules this; hosts call it periodically.
func (e *Engine[S, P]) DeleteExpiredSessions(ctx context.Context) error {
	if e == nil || e.adapter == nil {
		return ErrEngineNotReady
	}

	err := e.adapter.DeleteExpiredSessions(ctx)
	if err != nil {
		err = e.adapterError(ctx, "delete_expired_sessions", err)
	} else {
		e.metricInc(MetricExpiredSweep)
		e.logger.DebugContext(ctx, "expired sessions swept")
	}
	e.emitAudit(ctx, auditEventExpiredSweep, err == nil, "", "", err, nil)
	return err
}

func (e *Engine[S, P]) toSession(record *DatabaseSession, fresh bool) Session[S] {
	return Session[S]{
		ID:         record.ID,
		PersonID:   record.PersonID,
		ExpiresAt:  record.ExpiresAt,
		Fresh:      fresh,
		Attributes: e.sessionAttributes(record.Attributes),
	}
}

func (e *Engine[S, P]) adapterError(ctx context.Context, op string, err error) error {
	e.metricInc(MetricAdapterFailure)
	e.logger.WarnContext(ctx, "session adapter call failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return fmt.Errorf("%w: %w", ErrAdapterUnavailable, err)
}
