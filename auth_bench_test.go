package contactAuth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/contactAuth/internal/store/memory"
)

const benchPassword = "correct-password-123"

func newBenchmarkEngine(b *testing.B) *Engine {
	b.Helper()

	mr := miniredis.RunT(b)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	notifier := newRecordingNotifier()

	cfg := testConfig()
	cfg.Security.EnableLoginThrottle = false
	cfg.Audit.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPrincipalStore(memory.New()).
		WithNotifier(notifier).
		Build()
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}
	b.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
	})

	ctx := context.Background()
	if _, err := engine.SignUp(ctx, SignUpRequest{Email: "alice@x.com", DisplayName: "alice", Password: benchPassword}); err != nil {
		b.Fatalf("signup failed: %v", err)
	}
	sent := <-notifier.sent
	if _, err := engine.ConfirmEmail(ctx, sent.token); err != nil {
		b.Fatalf("confirm failed: %v", err)
	}
	return engine
}

func BenchmarkCurrentPrincipalCacheHit(b *testing.B) {
	engine := newBenchmarkEngine(b)
	ctx := context.Background()

	pair, err := engine.Login(ctx, "alice@x.com", benchPassword)
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	if _, err := engine.CurrentPrincipal(ctx, pair.AccessToken); err != nil {
		b.Fatalf("warm failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.CurrentPrincipal(ctx, pair.AccessToken); err != nil {
			b.Fatalf("resolve failed: %v", err)
		}
	}
}

func BenchmarkCurrentPrincipalParallel(b *testing.B) {
	engine := newBenchmarkEngine(b)
	ctx := context.Background()

	pair, err := engine.Login(ctx, "alice@x.com", benchPassword)
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := engine.CurrentPrincipal(ctx, pair.AccessToken); err != nil {
				b.Errorf("resolve failed: %v", err)
				return
			}
		}
	})
}

func BenchmarkRefresh(b *testing.B) {
	engine := newBenchmarkEngine(b)
	ctx := context.Background()

	pair, err := engine.Login(ctx, "alice@x.com", benchPassword)
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := engine.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
		pair = next
	}
}

func BenchmarkLogin(b *testing.B) {
	engine := newBenchmarkEngine(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(ctx, "alice@x.com", benchPassword); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}
