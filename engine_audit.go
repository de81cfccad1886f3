package persontric

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	auditEventSessionCreated            = "session_created"
	auditEventSessionCreateFailure      = "session_create_failure"
	auditEventSessionRotated            = "session_rotated"
	auditEventSessionExpired            = "session_expired"
	auditEventSessionOrphaned           = "session_orphaned"
	auditEventSessionInvalidated        = "session_invalidated"
	auditEventPersonSessionsInvalidated = "person_sessions_invalidated"
	auditEventExpiredSweep              = "expired_sessions_swept"
)

// AuditErrorCode is the stable, redacted error label carried by [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrAdapterUnavailable    AuditErrorCode = "adapter_unavailable"
	auditErrInvalidSessionID      AuditErrorCode = "invalid_session_id"
	auditErrInvalidPersonID       AuditErrorCode = "invalid_person_id"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrCanceled              AuditErrorCode = "canceled"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine[S, P]) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	personID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		PersonID:  personID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	case errors.Is(err, ErrAdapterUnavailable):
		return auditErrAdapterUnavailable
	case errors.Is(err, ErrInvalidSessionID):
		return auditErrInvalidSessionID
	case errors.Is(err, ErrInvalidPersonID):
		return auditErrInvalidPersonID
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	default:
		return auditErrInternal
	}
}
