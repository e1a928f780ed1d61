// Command contactauth-loadtest seeds confirmed principals and drives
// CurrentPrincipal and Refresh through an Engine from many workers,
// reporting throughput and latency percentiles per phase.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	contactAuth "github.com/MrEthical07/contactAuth"
	"github.com/MrEthical07/contactAuth/internal/store/memory"
	"github.com/MrEthical07/contactAuth/jwt"
	"github.com/MrEthical07/contactAuth/principal"
)

const loadtestSecret = "loadtest-secret-0123456789abcdef"

type principalState struct {
	email   string
	access  string
	refresh string
	mu      sync.Mutex
}

func main() {
	var (
		principals  = flag.Int("principals", 10000, "number of principals to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (resolve + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "user", "session cache key prefix")
	)
	flag.Parse()

	if *principals <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "principals, concurrency, and ops must be > 0")
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
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := contactAuth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(loadtestSecret)
	cfg.Cache.Prefix = *prefix
	cfg.Audit.Enabled = false
	cfg.Security.EnableLoginThrottle = false

	store := memory.New()
	engine, err := contactAuth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithPrincipalStore(store).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	codec, err := jwt.NewCodec(jwt.Config{PrivateKey: cfg.JWT.PrivateKey})
	if err != nil {
		fmt.Fprintf(os.Stderr, "codec failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeding %d principals...\n", *principals)
	startSeed := time.Now()
	states, err := seed(ctx, store, codec, *principals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	resolveStats := runResolvePhase(ctx, engine, states, *ops, *concurrency)
	refreshStats := runRefreshPhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("resolve", resolveStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("cache: hits=%d misses=%d\n",
		snap.Counters[contactAuth.MetricCacheHit],
		snap.Counters[contactAuth.MetricCacheMiss])
}

// seed inserts confirmed principals directly and mints their tokens, which
// skips the password hasher entirely.
func seed(ctx context.Context, store *memory.Store, codec *jwt.Codec, n int) ([]principalState, error) {
	states := make([]principalState, n)
	for i := range states {
		email := fmt.Sprintf("load-%d@contactauth.test", i)
		if _, err := store.Create(ctx, principal.Principal{
			Email:        email,
			DisplayName:  fmt.Sprintf("load-%d", i),
			PasswordHash: "unused",
			Confirmed:    true,
		}); err != nil {
			return nil, err
		}
		access, err := codec.IssueAccess(email)
		if err != nil {
			return nil, err
		}
		refresh, err := codec.IssueRefresh(email)
		if err != nil {
			return nil, err
		}
		if err := store.SetRefreshToken(ctx, email, &refresh); err != nil {
			return nil, err
		}
		states[i] = principalState{email: email, access: access, refresh: refresh}
	}
	return states, nil
}

func runResolvePhase(ctx context.Context, engine *contactAuth.Engine, states []principalState, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]
				t0 := time.Now()
				_, err := engine.CurrentPrincipal(ctx, state.access)
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
	return computeStats(time.Since(start), latencies, failures)
}

// runRefreshPhase serialises rotations per principal so every failure it
// counts is a real one rather than a lost race.
func runRefreshPhase(ctx context.Context, engine *contactAuth.Engine, states []principalState, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]

				state.mu.Lock()
				t0 := time.Now()
				pair, err := engine.Refresh(ctx, state.refresh)
				d := time.Since(t0)
				if err == nil {
					state.refresh = pair.RefreshToken
					state.access = pair.AccessToken
				} else {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
	return samples[(len(samples)-1)*p/100]
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
