package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "user"
	DefaultTTL    = 900 * time.Second
)

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable wraps every Redis transport failure.
	ErrCacheUnavailable = errors.New("session cache unavailable")
	// ErrCorruptEntry is returned when a stored blob cannot be decoded.
	ErrCorruptEntry = errors.New("corrupt cache entry")
)

// Config tunes a Cache. Zero values select DefaultPrefix and DefaultTTL.
type Config struct {
	Prefix string
	TTL    time.Duration
}

// Cache is a get/put/expire cache of principal snapshots keyed by email.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewCache(redisClient redis.UniversalClient, cfg Config) *Cache {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Cache{
		redis:  redisClient,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

// TTL returns the staleness bound for out-of-band writes.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) key(email string) string {
	return c.prefix + ":" + email
}

// Get returns the cached snapshot for email, ErrCacheMiss when absent, or
// ErrCorruptEntry when the stored blob does not decode.
func (c *Cache) Get(ctx context.Context, email string) (Snapshot, error) {
	data, err := c.redis.Get(ctx, c.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrCacheMiss
		}
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	s, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return s, nil
}

// Put stores s under email. A non-positive ttl selects the configured TTL.
func (c *Cache) Put(ctx context.Context, email string, s Snapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, c.key(email), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Expire drops the entry for email. Expiring a missing entry is not an error.
func (c *Cache) Expire(ctx context.Context, email string) error {
	if err := c.redis.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
