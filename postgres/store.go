package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/persontric"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDatabaseUnavailable wraps every failure returned by the pool.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// Store implements persontric.Adapter on the persontric_sessions and
// persontric_persons tables.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
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

// NewStore creates a Postgres-backed adapter. The schema must already be migrated.
func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ persontric.Adapter = (*Store)(nil)
	_ persontric.Pinger  = (*Store)(nil)
)

// NewPool builds a pgxpool from databaseURL and checks connectivity.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// SetPerson inserts or replaces a person row.
func (s *Store) SetPerson(ctx context.Context, person persontric.DatabasePerson) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO persontric_persons (id, attributes)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET attributes = EXCLUDED.attributes
	`, person.ID, jsonAttributes(person.Attributes))
	return unavailable(err)
}

// DeletePerson removes a person row. Sessions referencing it are left in place.
func (s *Store) DeletePerson(ctx context.Context, personID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM persontric_persons WHERE id = $1`, personID)
	return unavailable(err)
}

// GetSessionAndPerson loads a session and its owner with a single LEFT JOIN.
func (s *Store) GetSessionAndPerson(ctx context.Context, sessionID string) (*persontric.DatabaseSession, *persontric.DatabasePerson, error) {
	var (
		session     persontric.DatabaseSession
		personID    *string
		personAttrs map[string]string
	)

	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.person_id, s.expires_at, s.attributes, p.id, p.attributes
		FROM persontric_sessions s
		LEFT JOIN persontric_persons p ON p.id = s.person_id
		WHERE s.id = $1
	`, sessionID).Scan(
		&session.ID,
		&session.PersonID,
		&session.ExpiresAt,
		&session.Attributes,
		&personID,
		&personAttrs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, unavailable(err)
	}

	if personID == nil {
		return &session, nil, nil
	}
	return &session, &persontric.DatabasePerson{
		ID:         *personID,
		Attributes: personAttrs,
	}, nil
}

// GetPersonSessions returns the person's sessions in insertion order.
func (s *Store) GetPersonSessions(ctx context.Context, personID string) ([]persontric.DatabaseSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, person_id, expires_at, attributes
		FROM persontric_sessions
		WHERE person_id = $1
		ORDER BY seq
	`, personID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var out []persontric.DatabaseSession
	for rows.Next() {
		var session persontric.DatabaseSession
		if err := rows.Scan(&session.ID, &session.PersonID, &session.ExpiresAt, &session.Attributes); err != nil {
			return nil, unavailable(err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

// SetSession upserts a session row. Replacing a row keeps its insertion position.
func (s *Store) SetSession(ctx context.Context, session persontric.DatabaseSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO persontric_sessions (id, person_id, expires_at, attributes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			person_id = EXCLUDED.person_id,
			expires_at = EXCLUDED.expires_at,
			attributes = EXCLUDED.attributes
	`, session.ID, session.PersonID, session.ExpiresAt, jsonAttributes(session.Attributes))
	return unavailable(err)
}

// UpdateSessionExpiration sets expires_at. Unknown ids are a no-op.
func (s *Store) UpdateSessionExpiration(ctx context.Context, sessionID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE persontric_sessions SET expires_at = $2 WHERE id = $1
	`, sessionID, expiresAt)
	return unavailable(err)
}

// DeleteSession removes one session row.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM persontric_sessions WHERE id = $1`, sessionID)
	return unavailable(err)
}

// DeletePersonSessions removes every session owned by personID.
func (s *Store) DeletePersonSessions(ctx context.Context, personID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM persontric_sessions WHERE person_id = $1`, personID)
	return unavailable(err)
}

// DeleteExpiredSessions removes rows whose expiry is at or before the store clock.
func (s *Store) DeleteExpiredSessions(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM persontric_sessions WHERE expires_at <= $1`, s.now())
	return unavailable(err)
}

// Ping checks that a connection can be acquired.
func (s *Store) Ping(ctx context.Context) error {
	return unavailable(s.pool.Ping(ctx))
}

// jsonb columns are NOT NULL; nil maps are stored as an empty object.
func jsonAttributes(attrs persontric.Attributes) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}
	return attrs
}

func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrDatabaseUnavailable, err)
}
