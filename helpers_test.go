package persontric

import (
	"context"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeAdapter records calls and can inject a failure per operation.
type fakeAdapter struct {
	mu       sync.Mutex
	sessions map[string]DatabaseSession
	order    []string
	persons  map[string]DatabasePerson
	calls    map[string]int
	fail     map[string]error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		sessions: make(map[string]DatabaseSession),
		persons:  make(map[string]DatabasePerson),
		calls:    make(map[string]int),
		fail:     make(map[string]error),
	}
}

func (a *fakeAdapter) record(op string) error {
	a.calls[op]++
	return a.fail[op]
}

func (a *fakeAdapter) callCount(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[op]
}

func (a *fakeAdapter) totalCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		n += c
	}
	return n
}

func (a *fakeAdapter) addPerson(id string, attrs Attributes) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persons[id] = DatabasePerson{ID: id, Attributes: attrs}
}

func (a *fakeAdapter) addSession(s DatabaseSession) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions[s.ID]; !ok {
		a.order = append(a.order, s.ID)
	}
	a.sessions[s.ID] = s
}

func (a *fakeAdapter) session(id string) (DatabaseSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[id]
	return s, ok
}

func (a *fakeAdapter) GetSessionAndPerson(_ context.Context, sessionID string) (*DatabaseSession, *DatabasePerson, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("GetSessionAndPerson"); err != nil {
		return nil, nil, err
	}
	s, ok := a.sessions[sessionID]
	if !ok {
		return nil, nil, nil
	}
	p, ok := a.persons[s.PersonID]
	if !ok {
		return &s, nil, nil
	}
	return &s, &p, nil
}

func (a *fakeAdapter) GetPersonSessions(_ context.Context, personID string) ([]DatabaseSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("GetPersonSessions"); err != nil {
		return nil, err
	}
	var out []DatabaseSession
	for _, id := range a.order {
		if s, ok := a.sessions[id]; ok && s.PersonID == personID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *fakeAdapter) SetSession(_ context.Context, s DatabaseSession) error {
	a.mu.Lock()
	if err := a.record("SetSession"); err != nil {
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()
	a.addSession(s)
	return nil
}

func (a *fakeAdapter) UpdateSessionExpiration(_ context.Context, sessionID string, expiresAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("UpdateSessionExpiration"); err != nil {
		return err
	}
	if s, ok := a.sessions[sessionID]; ok {
		s.ExpiresAt = expiresAt
		a.sessions[sessionID] = s
	}
	return nil
}

func (a *fakeAdapter) DeleteSession(_ context.Context, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("DeleteSession"); err != nil {
		return err
	}
	delete(a.sessions, sessionID)
	return nil
}

func (a *fakeAdapter) DeletePersonSessions(_ context.Context, personID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("DeletePersonSessions"); err != nil {
		return err
	}
	for id, s := range a.sessions {
		if s.PersonID == personID {
			delete(a.sessions, id)
		}
	}
	return nil
}

func (a *fakeAdapter) DeleteExpiredSessions(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record("DeleteExpiredSessions")
}

type testSessionAttrs struct {
	Country string
}

type testPersonAttrs struct {
	Username string
}

func newTestEngine(t *testing.T, adapter Adapter, clock *testClock, mutate func(*Config)) *Engine[testSessionAttrs, testPersonAttrs] {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New[testSessionAttrs, testPersonAttrs]().
		WithConfig(cfg).
		WithAdapter(adapter).
		WithClock(clock.Now).
		WithSessionAttributes(func(a Attributes) testSessionAttrs {
			return testSessionAttrs{Country: a["country"]}
		}).
		WithPersonAttributes(func(a Attributes) testPersonAttrs {
			return testPersonAttrs{Username: a["username"]}
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}
