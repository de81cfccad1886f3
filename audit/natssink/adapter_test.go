package natssink

import (
	"context"
	"time"

	"github.com/MrEthical07/persontric"
)

type emptyAdapter struct{}

func (emptyAdapter) GetSessionAndPerson(context.Context, string) (*persontric.DatabaseSession, *persontric.DatabasePerson, error) {
	return nil, nil, nil
}

func (emptyAdapter) GetPersonSessions(context.Context, string) ([]persontric.DatabaseSession, error) {
	return nil, nil
}

func (emptyAdapter) SetSession(context.Context, persontric.DatabaseSession) error { return nil }

func (emptyAdapter) UpdateSessionExpiration(context.Context, string, time.Time) error { return nil }

func (emptyAdapter) DeleteSession(context.Context, string) error { return nil }

func (emptyAdapter) DeletePersonSessions(context.Context, string) error { return nil }

func (emptyAdapter) DeleteExpiredSessions(context.Context) error { return nil }
