package persontric

import (
	"context"
	"time"
)

// Attributes is the deployment-specific field bag stored next to a session or person.
// The engine never interprets it; an [AttributeMapper] turns it into a typed value.
type Attributes map[string]string

// Clone returns an independent copy of a. A nil map clones to nil.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// AttributeMapper converts stored attributes into the typed value exposed by the engine.
type AttributeMapper[T any] func(Attributes) T

// DatabaseSession is a session record as persisted by an [Adapter].
type DatabaseSession struct {
	ID         string
	PersonID   string
	ExpiresAt  time.Time
	Attributes Attributes
}

// DatabasePerson is a person record as returned by an [Adapter].
type DatabasePerson struct {
	ID         string
	Attributes Attributes
}

// Session is the engine-facing session. Fresh is true when the session was created or
// its expiry was extended by the call that returned it; it is never persisted.
type Session[S any] struct {
	ID         string
	PersonID   string
	ExpiresAt  time.Time
	Fresh      bool
	Attributes S
}

// Person is the engine-facing owner of a session.
type Person[P any] struct {
	ID         string
	Attributes P
}

// Adapter is the persistence contract the engine drives. Implementations must be safe
// for concurrent use.
//
// Absence is never an error: GetSessionAndPerson returns nil records for an unknown
// session id (and a nil person when the owner is gone), and the delete operations are
// no-ops for unknown ids.
type Adapter interface {
	GetSessionAndPerson(ctx context.Context, sessionID string) (*DatabaseSession, *DatabasePerson, error)
	GetPersonSessions(ctx context.Context, personID string) ([]DatabaseSession, error)
	SetSession(ctx context.Context, session DatabaseSession) error
	UpdateSessionExpiration(ctx context.Context, sessionID string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeletePersonSessions(ctx context.Context, personID string) error
	DeleteExpiredSessions(ctx context.Context) error
}

// Pinger is implemented by adapters that can report backend reachability.
// [Engine.Health] uses it when available.
type Pinger interface {
	Ping(ctx context.Context) error
}
