package persontric

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSessionCreated)

	if got := m.Value(MetricSessionCreated); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricSessionValidated)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionValidated); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}
	for _, d := range observations {
		m.Observe(MetricValidateLatency, d)
	}
	m.Observe(MetricSessionCreated, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricValidateLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestEngineRecordsLifecycleMetrics(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	adapter := newFakeAdapter()
	adapter.addPerson("P1", nil)
	engine := newTestEngine(t, adapter, clock, func(c *Config) {
		c.Metrics.EnableLatencyHistograms = true
	})

	created, err := engine.CreateSession(ctx, "P1", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, _, err := engine.ValidateSession(ctx, created.ID); err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if _, _, err := engine.ValidateSession(ctx, "unknown"); err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if err := engine.InvalidateSession(ctx, created.ID); err != nil {
		t.Fatalf("InvalidateSession failed: %v", err)
	}
	if err := engine.InvalidatePersonSessions(ctx, "P1"); err != nil {
		t.Fatalf("InvalidatePersonSessions failed: %v", err)
	}
	if err := engine.DeleteExpiredSessions(ctx); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricSessionCreated:            1,
		MetricSessionValidated:          1,
		MetricSessionNotFound:           1,
		MetricSessionInvalidated:        1,
		MetricPersonSessionsInvalidated: 1,
		MetricExpiredSweep:              1,
		MetricAdapterFailure:            0,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}

	var total uint64
	for _, v := range snap.Histograms[MetricValidateLatency] {
		total += v
	}
	if total != 2 {
		t.Fatalf("expected 2 latency samples, got %d", total)
	}
}
