//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/contactAuth/session"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes returns miniredis plus a real standalone or cluster Redis
// when REDIS_ADDR or REDIS_CLUSTER_ADDRS is set.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				mr := miniredis.RunT(t)
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: strings.Split(addrs, ",")})
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis cluster: %v", err)
				}
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		})
	}
	return modes
}

// uniqueEmail keeps runs against a shared Redis from colliding.
func uniqueEmail(t *testing.T) string {
	return fmt.Sprintf("%s-%d@compat.test", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
}

func TestRedisCompatPutGetExpire(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			cache := session.NewCache(mode.setup(t), session.Config{Prefix: "compat"})
			email := uniqueEmail(t)
			want := makeSnapshot(7, email)

			if err := cache.Put(ctx, email, want, time.Minute); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			got, err := cache.Get(ctx, email)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != want {
				t.Fatalf("snapshot mismatch: got %+v want %+v", got, want)
			}

			if err := cache.Expire(ctx, email); err != nil {
				t.Fatalf("Expire failed: %v", err)
			}
			if _, err := cache.Get(ctx, email); !errors.Is(err, session.ErrCacheMiss) {
				t.Fatalf("expected cache miss after expire, got %v", err)
			}
			if err := cache.Expire(ctx, email); err != nil {
				t.Fatalf("expiring a missing entry failed: %v", err)
			}
		})
	}
}

func TestRedisCompatCorruptEntry(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			rdb := mode.setup(t)
			cache := session.NewCache(rdb, session.Config{Prefix: "compat"})
			email := uniqueEmail(t)

			if err := rdb.Set(ctx, "compat:"+email, "not-a-snapshot", time.Minute).Err(); err != nil {
				t.Fatalf("seed failed: %v", err)
			}
			if _, err := cache.Get(ctx, email); !errors.Is(err, session.ErrCorruptEntry) {
				t.Fatalf("expected corrupt entry, got %v", err)
			}
			_ = cache.Expire(ctx, email)
		})
	}
}

func TestCacheEntryHonoursTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newIntegrationCache(t)

	if err := cache.Put(ctx, "a@x.com", makeSnapshot(1, "a@x.com"), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ttl := mr.TTL("user:a@x.com"); ttl != session.DefaultTTL {
		t.Fatalf("expected default ttl %s, got %s", session.DefaultTTL, ttl)
	}

	mr.FastForward(session.DefaultTTL + time.Second)
	if _, err := cache.Get(ctx, "a@x.com"); !errors.Is(err, session.ErrCacheMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
}

func TestCacheOutageIsUnavailable(t *testing.T) {
	ctx := context.Background()
	cache, mr := newIntegrationCache(t)
	mr.Close()

	if _, err := cache.Get(ctx, "a@x.com"); !errors.Is(err, session.ErrCacheUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if err := cache.Ping(ctx); !errors.Is(err, session.ErrCacheUnavailable) {
		t.Fatalf("expected ping unavailable, got %v", err)
	}
}
