package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/persontric"
)

type entry struct {
	seq     uint64
	session persontric.DatabaseSession
}

// Store is a mutex-guarded persontric.Adapter.
type Store struct {
	mu       sync.RWMutex
	seq      uint64
	sessions map[string]entry
	persons  map[string]persontric.DatabasePerson
	now      func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the time source used by DeleteExpiredSessions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]entry),
		persons:  make(map[string]persontric.DatabasePerson),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPerson inserts or replaces a person record.
func (s *Store) SetPerson(_ context.Context, person persontric.DatabasePerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persons[person.ID] = persontric.DatabasePerson{
		ID:         person.ID,
		Attributes: person.Attributes.Clone(),
	}
	return nil
}

// DeletePerson removes a person record. Its sessions stay behind as orphans until the
// engine purges them.
func (s *Store) DeletePerson(_ context.Context, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.persons, personID)
	return nil
}

// GetSessionAndPerson implements persontric.Adapter.
func (s *Store) GetSessionAndPerson(ctx context.Context, sessionID string) (*persontric.DatabaseSession, *persontric.DatabasePerson, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, nil
	}
	sess := copySession(e.session)

	p, ok := s.persons[sess.PersonID]
	if !ok {
		return &sess, nil, nil
	}
	person := persontric.DatabasePerson{ID: p.ID, Attributes: p.Attributes.Clone()}
	return &sess, &person, nil
}

// GetPersonSessions implements persontric.Adapter. Sessions are returned in insertion order.
func (s *Store) GetPersonSessions(ctx context.Context, personID string) ([]persontric.DatabaseSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matches := make([]entry, 0, 4)
	for _, e := range s.sessions {
		if e.session.PersonID == personID {
			matches = append(matches, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })

	out := make([]persontric.DatabaseSession, 0, len(matches))
	for _, e := range matches {
		out = append(out, copySession(e.session))
	}
	return out, nil
}

// SetSession implements persontric.Adapter.
func (s *Store) SetSession(ctx context.Context, session persontric.DatabaseSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.sessions[session.ID] = entry{seq: s.seq, session: copySession(session)}
	return nil
}

// UpdateSessionExpiration implements persontric.Adapter. Unknown ids are ignored.
func (s *Store) UpdateSessionExpiration(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	e.session.ExpiresAt = expiresAt
	s.sessions[sessionID] = e
	return nil
}

// DeleteSession implements persontric.Adapter.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// DeletePersonSessions implements persontric.Adapter.
func (s *Store) DeletePersonSessions(ctx context.Context, personID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if e.session.PersonID == personID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// DeleteExpiredSessions implements persontric.Adapter.
func (s *Store) DeleteExpiredSessions(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if !now.Before(e.session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copySession(in persontric.DatabaseSession) persontric.DatabaseSession {
	return persontric.DatabaseSession{
		ID:         in.ID,
		PersonID:   in.PersonID,
		ExpiresAt:  in.ExpiresAt,
		Attributes: in.Attributes.Clone(),
	}
}

var _ persontric.Adapter = (*Store)(nil)
