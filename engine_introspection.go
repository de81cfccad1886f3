package persontric

import (
	"context"
	"time"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	// Checked is false when the adapter does not implement [Pinger].
	Checked          bool
	AdapterAvailable bool
	AdapterLatency   time.Duration
}

// Health pings the adapter when it implements [Pinger].
func (e *Engine[S, P]) Health(ctx context.Context) HealthStatus {
	if e == nil || e.adapter == nil {
		return HealthStatus{}
	}

	pinger, ok := e.adapter.(Pinger)
	if !ok {
		return HealthStatus{AdapterAvailable: true}
	}

	start := time.Now()
	err := pinger.Ping(ctx)
	return HealthStatus{
		Checked:          true,
		AdapterAvailable: err == nil,
		AdapterLatency:   time.Since(start),
	}
}

// CountPersonSessions returns the number of live sessions owned by personID.
func (e *Engine[S, P]) CountPersonSessions(ctx context.Context, personID string) (int, error) {
	sessions, err := e.GetPersonSessions(ctx, personID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}
