package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/persontric"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func newSessionStoreTest(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewStore(rdb, append([]Option{WithPrefix("pt")}, opts...)...), mr, rdb
}

func seedPerson(t *testing.T, store *Store, personID string) {
	t.Helper()
	err := store.SetPerson(context.Background(), persontric.DatabasePerson{
		ID:         personID,
		Attributes: persontric.Attributes{"username": personID},
	})
	if err != nil {
		t.Fatalf("set person: %v", err)
	}
}

func putSession(t *testing.T, store *Store, id, personID string, expiresAt time.Time) {
	t.Helper()
	err := store.SetSession(context.Background(), persontric.DatabaseSession{
		ID:         id,
		PersonID:   personID,
		ExpiresAt:  expiresAt,
		Attributes: persontric.Attributes{"ip": "10.0.0.1"},
	})
	if err != nil {
		t.Fatalf("set session %s: %v", id, err)
	}
}

func TestStoreGetSessionAndPerson(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()
	seedPerson(t, store, "p1")

	expiresAt := time.UnixMilli(time.Now().Add(time.Hour).UnixMilli())
	putSession(t, store, "s1", "p1", expiresAt)

	sess, person, err := store.GetSessionAndPerson(ctx, "s1")
	if err != nil {
		t.Fatalf("get pair: %v", err)
	}
	if sess == nil || person == nil {
		t.Fatalf("expected session and person, got %v %v", sess, person)
	}
	if sess.ID != "s1" || sess.PersonID != "p1" || !sess.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.Attributes["ip"] != "10.0.0.1" || person.Attributes["username"] != "p1" {
		t.Fatalf("unexpected attributes %v %v", sess.Attributes, person.Attributes)
	}

	ttl := mr.TTL("pt:s:s1")
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected key ttl within one hour, got %v", ttl)
	}
}

func TestStoreUnknownAndOrphan(t *testing.T) {
	store, _, _ := newSessionStoreTest(t)
	ctx := context.Background()

	sess, person, err := store.GetSessionAndPerson(ctx, "missing")
	if err != nil || sess != nil || person != nil {
		t.Fatalf("expected nil results for unknown id, got %v %v %v", sess, person, err)
	}

	putSession(t, store, "s1", "ghost", time.Now().Add(time.Hour))
	sess, person, err = store.GetSessionAndPerson(ctx, "s1")
	if err != nil {
		t.Fatalf("get orphan: %v", err)
	}
	if sess == nil || person != nil {
		t.Fatalf("expected session without person, got %v %v", sess, person)
	}
}

func TestStoreCorruptBlob(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	if err := mr.Set("pt:s:bad", "garbage"); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	_, _, err := store.GetSessionAndPerson(context.Background(), "bad")
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
	if errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("corrupt data must not be reported as an outage")
	}
}

func TestStorePersonSessionsCreationOrder(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	for _, id := range []string{"zz", "aa", "mm"} {
		putSession(t, store, id, "p1", exp)
	}
	putSession(t, store, "other", "p2", exp)

	// Re-setting an existing session keeps its position.
	putSession(t, store, "zz", "p1", exp.Add(time.Minute))

	sessions, err := store.GetPersonSessions(ctx, "p1")
	if err != nil {
		t.Fatalf("person sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i, want := range []string{"zz", "aa", "mm"} {
		if sessions[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, sessions[i].ID)
		}
	}

	mr.Del("pt:s:aa")
	sessions, err = store.GetPersonSessions(ctx, "p1")
	if err != nil {
		t.Fatalf("person sessions after expiry: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	members, _ := mr.ZMembers("pt:ps:p1")
	if len(members) != 2 {
		t.Fatalf("expected stale index entry to be removed, got %v", members)
	}

	none, err := store.GetPersonSessions(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no sessions, got %v %v", none, err)
	}
}

func TestStoreSetSessionInPast(t *testing.T) {
	clock := &testClock{t: time.Now()}
	store, mr, _ := newSessionStoreTest(t, WithClock(clock.Now))

	putSession(t, store, "s1", "p1", clock.t.Add(time.Hour))
	putSession(t, store, "s1", "p1", clock.t.Add(-time.Minute))

	if mr.Exists("pt:s:s1") {
		t.Fatalf("expired session must not be stored")
	}
	members, _ := mr.ZMembers("pt:ps:p1")
	if len(members) != 0 {
		t.Fatalf("expected empty person index, got %v", members)
	}
}

func TestStoreUpdateSessionExpiration(t *testing.T) {
	clock := &testClock{t: time.Now()}
	store, mr, _ := newSessionStoreTest(t, WithClock(clock.Now))
	ctx := context.Background()
	seedPerson(t, store, "p1")

	putSession(t, store, "s1", "p1", clock.t.Add(10*time.Minute))

	next := time.UnixMilli(clock.t.Add(2 * time.Hour).UnixMilli())
	if err := store.UpdateSessionExpiration(ctx, "s1", next); err != nil {
		t.Fatalf("update expiration: %v", err)
	}

	sess, _, err := store.GetSessionAndPerson(ctx, "s1")
	if err != nil || sess == nil {
		t.Fatalf("get after update: %v %v", sess, err)
	}
	if !sess.ExpiresAt.Equal(next) {
		t.Fatalf("expected expiry %v, got %v", next, sess.ExpiresAt)
	}
	if sess.Attributes["ip"] != "10.0.0.1" {
		t.Fatalf("attributes lost on update: %v", sess.Attributes)
	}
	if ttl := mr.TTL("pt:s:s1"); ttl <= time.Hour {
		t.Fatalf("expected key ttl to be extended, got %v", ttl)
	}
	score, err := mr.ZScore("pt:exp", "s1")
	if err != nil || int64(score) != next.UnixMilli() {
		t.Fatalf("expected expiry index score %d, got %v (%v)", next.UnixMilli(), score, err)
	}

	if err := store.UpdateSessionExpiration(ctx, "missing", next); err != nil {
		t.Fatalf("update of unknown id must be a no-op, got %v", err)
	}
	if mr.Exists("pt:s:missing") {
		t.Fatalf("update must not create sessions")
	}
}

func TestStoreDeleteSessionIdempotent(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()

	putSession(t, store, "s1", "p1", time.Now().Add(time.Hour))
	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if mr.Exists("pt:s:s1") {
		t.Fatalf("session key still present")
	}
	if members, _ := mr.ZMembers("pt:ps:p1"); len(members) != 0 {
		t.Fatalf("expected no person index members, got %v", members)
	}
	if members, _ := mr.ZMembers("pt:exp"); len(members) != 0 {
		t.Fatalf("expected no expiry index members, got %v", members)
	}
}

func TestStoreDeletePersonSessions(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	putSession(t, store, "a", "p1", exp)
	putSession(t, store, "b", "p1", exp)
	putSession(t, store, "c", "p2", exp)

	if err := store.DeletePersonSessions(ctx, "p1"); err != nil {
		t.Fatalf("delete person sessions: %v", err)
	}
	if mr.Exists("pt:s:a") || mr.Exists("pt:s:b") || mr.Exists("pt:ps:p1") {
		t.Fatalf("p1 sessions must be gone")
	}
	if !mr.Exists("pt:s:c") {
		t.Fatalf("p2 session must survive")
	}
	if members, _ := mr.ZMembers("pt:exp"); len(members) != 1 || members[0] != "c" {
		t.Fatalf("unexpected expiry index %v", members)
	}

	if err := store.DeletePersonSessions(ctx, "nobody"); err != nil {
		t.Fatalf("delete for unknown person: %v", err)
	}
}

func TestStoreDeleteExpiredSessions(t *testing.T) {
	clock := &testClock{t: time.Now()}
	store, mr, _ := newSessionStoreTest(t, WithClock(clock.Now))
	ctx := context.Background()

	putSession(t, store, "short", "p1", clock.t.Add(time.Minute))
	putSession(t, store, "exact", "p1", clock.t.Add(2*time.Minute))
	putSession(t, store, "long", "p1", clock.t.Add(time.Hour))

	clock.t = clock.t.Add(2 * time.Minute)
	if err := store.DeleteExpiredSessions(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if mr.Exists("pt:s:short") || mr.Exists("pt:s:exact") {
		t.Fatalf("expired sessions must be swept")
	}
	if !mr.Exists("pt:s:long") {
		t.Fatalf("live session must survive the sweep")
	}
	if members, _ := mr.ZMembers("pt:ps:p1"); len(members) != 1 || members[0] != "long" {
		t.Fatalf("unexpected person index after sweep %v", members)
	}
}

func TestStoreRedisUnavailable(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t)
	ctx := context.Background()
	mr.Close()

	if _, _, err := store.GetSessionAndPerson(ctx, "s1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from get, got %v", err)
	}
	err := store.SetSession(ctx, persontric.DatabaseSession{ID: "s1", PersonID: "p1", ExpiresAt: time.Now().Add(time.Hour)})
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from set, got %v", err)
	}
	if err := store.DeleteExpiredSessions(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from sweep, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from ping, got %v", err)
	}
}

type sessionAttrs struct {
	IP string
}

type personAttrs struct {
	Username string
}

func TestEngineLifecycleOnRedisStore(t *testing.T) {
	clock := &testClock{t: time.UnixMilli(time.Now().UnixMilli())}
	store, _, _ := newSessionStoreTest(t, WithClock(clock.Now))
	ctx := context.Background()
	seedPerson(t, store, "p1")

	engine, err := persontric.New[sessionAttrs, personAttrs]().
		WithAdapter(store).
		WithClock(clock.Now).
		WithSessionTTL(time.Hour).
		WithSessionAttributes(func(a persontric.Attributes) sessionAttrs { return sessionAttrs{IP: a["ip"]} }).
		WithPersonAttributes(func(a persontric.Attributes) personAttrs { return personAttrs{Username: a["username"]} }).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	if status := engine.Health(ctx); !status.Checked || !status.AdapterAvailable {
		t.Fatalf("expected healthy redis adapter, got %+v", status)
	}

	created, err := engine.CreateSession(ctx, "p1", persontric.Attributes{"ip": "10.1.1.1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	sess, person, err := engine.ValidateSession(ctx, created.ID)
	if err != nil || sess == nil || sess.Fresh {
		t.Fatalf("expected non-fresh valid session, got %+v %v", sess, err)
	}
	if sess.Attributes.IP != "10.1.1.1" || person.Attributes.Username != "p1" {
		t.Fatalf("unexpected mapped attributes %+v %+v", sess.Attributes, person.Attributes)
	}

	clock.t = clock.t.Add(40 * time.Minute)
	sess, _, err = engine.ValidateSession(ctx, created.ID)
	if err != nil || sess == nil || !sess.Fresh {
		t.Fatalf("expected renewed session, got %+v %v", sess, err)
	}
	if !sess.ExpiresAt.Equal(clock.t.Add(time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", clock.t.Add(time.Hour), sess.ExpiresAt)
	}

	if err := store.DeletePerson(ctx, "p1"); err != nil {
		t.Fatalf("delete person: %v", err)
	}
	sess, person, err = engine.ValidateSession(ctx, created.ID)
	if err != nil || sess != nil || person != nil {
		t.Fatalf("expected orphan purge, got %v %v %v", sess, person, err)
	}
	remaining, err := store.GetPersonSessions(ctx, "p1")
	if err != nil || len(remaining) != 0 {
		t.Fatalf("expected orphaned session to be deleted, got %v %v", remaining, err)
	}
}
