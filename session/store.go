package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/persontric"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every failure that originates in the Redis client.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	// DefaultPrefix namespaces every key written by a Store.
	DefaultPrefix = "persontric"

	maxWatchRetries = 3
	sweepBatchSize  = 256
)

const (
	pairStatusMissing int64 = 0
	pairStatusOrphan  int64 = 1
	pairStatusFound   int64 = 2
)

// The person id sits at bytes [3, 2+len] of every session blob.
const getPairScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end
local person_len = string.byte(data, 2)
if not person_len or #data < 2 + person_len then
  return {1, data}
end
local person = redis.call("GET", ARGV[1] .. string.sub(data, 3, 2 + person_len))
if not person then
  return {1, data}
end
return {2, data, person}
`

var getPairLua = redis.NewScript(getPairScript)

const setSessionScript = `
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
if not redis.call("ZSCORE", KEYS[2], ARGV[3]) then
  redis.call("ZADD", KEYS[2], redis.call("INCR", KEYS[4]), ARGV[3])
end
redis.call("ZADD", KEYS[3], ARGV[4], ARGV[3])
return 1
`

var setSessionLua = redis.NewScript(setSessionScript)

const deleteSessionScript = `
local data = redis.call("GET", KEYS[1])
redis.call("ZREM", KEYS[2], ARGV[1])
if not data then
  return 0
end
local person_len = string.byte(data, 2)
if person_len and #data >= 2 + person_len then
  redis.call("ZREM", ARGV[2] .. string.sub(data, 3, 2 + person_len), ARGV[1])
end
redis.call("DEL", KEYS[1])
return 1
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

const deletePersonSessionsScript = `
local ids = redis.call("ZRANGE", KEYS[1], 0, -1)
for _, id in ipairs(ids) do
  redis.call("DEL", ARGV[1] .. id)
  redis.call("ZREM", KEYS[2], id)
end
redis.call("DEL", KEYS[1])
return #ids
`

var deletePersonSessionsLua = redis.NewScript(deletePersonSessionsScript)

// Store is a Redis-backed persontric.Adapter.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock sets the time source used to derive key TTLs and the sweep cutoff.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store using client for all operations.
func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		redis:  client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ persontric.Adapter = (*Store)(nil)
	_ persontric.Pinger  = (*Store)(nil)
)

func (s *Store) sessionKey(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) sessionKeyPrefix() string {
	return s.prefix + ":s:"
}

func (s *Store) personKey(personID string) string {
	return s.prefix + ":p:" + personID
}

func (s *Store) personKeyPrefix() string {
	return s.prefix + ":p:"
}

func (s *Store) personSessionsKey(personID string) string {
	return s.prefix + ":ps:" + personID
}

func (s *Store) personSessionsKeyPrefix() string {
	return s.prefix + ":ps:"
}

func (s *Store) expiryKey() string {
	return s.prefix + ":exp"
}

func (s *Store) seqKey() string {
	return s.prefix + ":seq"
}

// SetPerson writes a person record. Persons have no expiry.
func (s *Store) SetPerson(ctx context.Context, person persontric.DatabasePerson) error {
	if person.ID == "" {
		return errors.New("person id is required")
	}
	blob, err := EncodePerson(&PersonRecord{Attributes: person.Attributes})
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.personKey(person.ID), blob, 0).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// DeletePerson removes a person record. Its sessions remain until the engine purges
// them as orphans or DeletePersonSessions is called.
func (s *Store) DeletePerson(ctx context.Context, personID string) error {
	if err := s.redis.Del(ctx, s.personKey(personID)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetSessionAndPerson fetches the session and its owner in one round trip.
func (s *Store) GetSessionAndPerson(ctx context.Context, sessionID string) (*persontric.DatabaseSession, *persontric.DatabasePerson, error) {
	res, err := getPairLua.Run(ctx, s.redis, []string{s.sessionKey(sessionID)}, s.personKeyPrefix()).Slice()
	if err != nil {
		return nil, nil, unavailable(err)
	}
	if len(res) == 0 {
		return nil, nil, fmt.Errorf("%w: empty pair reply", ErrCorruptRecord)
	}

	status, _ := res[0].(int64)
	if status == pairStatusMissing {
		return nil, nil, nil
	}
	if len(res) < 2 {
		return nil, nil, fmt.Errorf("%w: short pair reply", ErrCorruptRecord)
	}

	sessionBlob, _ := res[1].(string)
	rec, err := DecodeSession([]byte(sessionBlob))
	if err != nil {
		return nil, nil, err
	}
	session := toDatabaseSession(sessionID, rec)

	if status != pairStatusFound || len(res) < 3 {
		return &session, nil, nil
	}

	personBlob, _ := res[2].(string)
	p, err := DecodePerson([]byte(personBlob))
	if err != nil {
		return nil, nil, err
	}
	return &session, &persontric.DatabasePerson{
		ID:         rec.PersonID,
		Attributes: p.Attributes,
	}, nil
}

// GetPersonSessions returns the person's sessions in creation order. Index entries
// whose session key has already expired are removed on the way.
func (s *Store) GetPersonSessions(ctx context.Context, personID string) ([]persontric.DatabaseSession, error) {
	indexKey := s.personSessionsKey(personID)
	ids, err := s.redis.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.sessionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, unavailable(err)
	}

	out := make([]persontric.DatabaseSession, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, ids[i])
			continue
		}
		if err != nil {
			return nil, unavailable(err)
		}
		rec, err := DecodeSession(data)
		if err != nil {
			return nil, err
		}
		if rec.PersonID != personID {
			stale = append(stale, ids[i])
			continue
		}
		out = append(out, toDatabaseSession(ids[i], rec))
	}

	if len(stale) > 0 {
		// Best effort; a failed cleanup is retried on the next read.
		_, _ = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, indexKey, stale...)
			pipe.ZRem(ctx, s.expiryKey(), stale...)
			return nil
		})
	}

	return out, nil
}

// SetSession inserts or replaces a session. A session whose expiry has already passed
// is not stored, and any previous record under its id is removed.
func (s *Store) SetSession(ctx context.Context, session persontric.DatabaseSession) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}

	expiresAt := session.ExpiresAt.UnixMilli()
	blob, err := EncodeSession(&Record{
		PersonID:   session.PersonID,
		ExpiresAt:  expiresAt,
		Attributes: session.Attributes,
	})
	if err != nil {
		return err
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl < time.Millisecond {
		return s.DeleteSession(ctx, session.ID)
	}

	keys := []string{
		s.sessionKey(session.ID),
		s.personSessionsKey(session.PersonID),
		s.expiryKey(),
		s.seqKey(),
	}
	err = setSessionLua.Run(ctx, s.redis, keys,
		blob,
		ttl.Milliseconds(),
		session.ID,
		expiresAt,
	).Err()
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// UpdateSessionExpiration rewrites the stored expiry and key TTL under WATCH.
// Unknown ids are a no-op.
func (s *Store) UpdateSessionExpiration(ctx context.Context, sessionID string, expiresAt time.Time) error {
	key := s.sessionKey(sessionID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		rec, err := DecodeSession(data)
		if err != nil {
			return err
		}
		rec.ExpiresAt = expiresAt.UnixMilli()
		blob, err := EncodeSession(rec)
		if err != nil {
			return err
		}

		ttl := expiresAt.Sub(s.now())
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if ttl < time.Millisecond {
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, s.expiryKey(), sessionID)
				pipe.ZRem(ctx, s.personSessionsKey(rec.PersonID), sessionID)
				return nil
			}
			pipe.Set(ctx, key, blob, ttl)
			pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: float64(rec.ExpiresAt), Member: sessionID})
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrCorruptRecord) {
			return unavailable(err)
		}
		return err
	}
	return unavailable(redis.TxFailedErr)
}

// DeleteSession removes a session and its index entries. Unknown ids are a no-op.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	err := deleteSessionLua.Run(ctx, s.redis,
		[]string{s.sessionKey(sessionID), s.expiryKey()},
		sessionID,
		s.personSessionsKeyPrefix(),
	).Err()
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// DeletePersonSessions removes every session indexed under personID atomically.
func (s *Store) DeletePersonSessions(ctx context.Context, personID string) error {
	err := deletePersonSessionsLua.Run(ctx, s.redis,
		[]string{s.personSessionsKey(personID), s.expiryKey()},
		s.sessionKeyPrefix(),
	).Err()
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the store clock,
// in batches of sweepBatchSize.
func (s *Store) DeleteExpiredSessions(ctx context.Context) error {
	cutoff := strconv.FormatInt(s.now().UnixMilli(), 10)

	for {
		ids, err := s.redis.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{
			Min:   "-inf",
			Max:   cutoff,
			Count: sweepBatchSize,
		}).Result()
		if err != nil {
			return unavailable(err)
		}

		for _, id := range ids {
			if err := s.DeleteSession(ctx, id); err != nil {
				return err
			}
		}

		if len(ids) < sweepBatchSize {
			return nil
		}
	}
}

// Ping checks Redis reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func toDatabaseSession(sessionID string, rec *Record) persontric.DatabaseSession {
	return persontric.DatabaseSession{
		ID:         sessionID,
		PersonID:   rec.PersonID,
		ExpiresAt:  time.UnixMilli(rec.ExpiresAt),
		Attributes: rec.Attributes,
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
}
