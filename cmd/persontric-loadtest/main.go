// Command persontric-loadtest measures session validation and renewal throughput
// against the Redis adapter.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/persontric"
	"github.com/MrEthical07/persontric/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type attrs struct{}

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		persons     = flag.Int("persons", 10000, "number of persons owning the sessions")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		ttl         = flag.Duration("ttl", 24*time.Hour, "session TTL")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "persontric-lt", "redis key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *persons <= 0 || *concurrency <= 0 || *ops <= 0 || *ttl <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, persons, concurrency, ops, and ttl must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := session.NewStore(client, session.WithPrefix(*prefix))

	engine, err := newEngine(store, *ttl, time.Now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	// A second engine whose clock sits past the renewal threshold, so its first
	// validation of every session extends it.
	skew := *ttl/2 + time.Minute
	aged, err := newEngine(store, *ttl, func() time.Time { return time.Now().Add(skew) })
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer aged.Close()

	fmt.Printf("seeding %d persons and %d sessions...\n", *persons, *sessions)
	startSeed := time.Now()
	for p := 0; p < *persons; p++ {
		if err := store.SetPerson(ctx, persontric.DatabasePerson{ID: personID(p)}); err != nil {
			fmt.Fprintf(os.Stderr, "set person failed: %v\n", err)
			os.Exit(1)
		}
	}
	ids := make([]string, *sessions)
	for i := range ids {
		s, err := engine.CreateSession(ctx, personID(i%*persons), nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create session failed: %v\n", err)
			os.Exit(1)
		}
		ids[i] = s.ID
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	var renewed int64
	validateStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		_, _, err := engine.ValidateSession(ctx, ids[r.Intn(len(ids))])
		return err
	})
	renewStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		s, _, err := aged.ValidateSession(ctx, ids[r.Intn(len(ids))])
		if s != nil && s.Fresh {
			atomic.AddInt64(&renewed, 1)
		}
		return err
	})
	listStats := runPhase(*ops, *concurrency, 104729, func(r *rand.Rand) error {
		_, err := engine.GetPersonSessions(ctx, personID(r.Intn(*persons)))
		return err
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("renew", renewStats)
	fmt.Printf("renew: sessions extended=%d\n", renewed)
	printStats("list", listStats)

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("engine: created=%d validated=%d not_found=%d adapter_failures=%d\n",
		snapshot.Counters[persontric.MetricSessionCreated],
		snapshot.Counters[persontric.MetricSessionValidated],
		snapshot.Counters[persontric.MetricSessionNotFound],
		snapshot.Counters[persontric.MetricAdapterFailure],
	)
}

func newEngine(store *session.Store, ttl time.Duration, now func() time.Time) (*persontric.Engine[attrs, attrs], error) {
	return persontric.New[attrs, attrs]().
		WithAdapter(store).
		WithClock(now).
		WithSessionTTL(ttl).
		WithMetricsEnabled(true).
		Build()
}

func personID(i int) string {
	return fmt.Sprintf("person-%d", i)
}

func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
