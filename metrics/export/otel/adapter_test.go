package otel

import (
	"context"
	"time"

	"github.com/MrEthical07/persontric"
)

// nopAdapter stores nothing; every lookup misses.
type nopAdapter struct{}

func (nopAdapter) GetSessionAndPerson(context.Context, string) (*persontric.DatabaseSession, *persontric.DatabasePerson, error) {
	return nil, nil, nil
}

func (nopAdapter) GetPersonSessions(context.Context, string) ([]persontric.DatabaseSession, error) {
	return nil, nil
}

func (nopAdapter) SetSession(context.Context, persontric.DatabaseSession) error { return nil }

func (nopAdapter) UpdateSessionExpiration(context.Context, string, time.Time) error { return nil }

func (nopAdapter) DeleteSession(context.Context, string) error { return nil }

func (nopAdapter) DeletePersonSessions(context.Context, string) error { return nil }

func (nopAdapter) DeleteExpiredSessions(context.Context) error { return nil }
