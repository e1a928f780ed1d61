//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/contactAuth/session"
)

func newIntegrationCache(t *testing.T) (*session.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return session.NewCache(rdb, session.Config{}), mr
}

func makeSnapshot(id int64, email string) session.Snapshot {
	return session.Snapshot{
		ID:          id,
		Email:       email,
		DisplayName: "member",
		Avatar:      "https://www.gravatar.com/avatar/00000000000000000000000000000000",
		Confirmed:   true,
		CreatedAt:   time.Now().UTC(),
	}.Normalize()
}
