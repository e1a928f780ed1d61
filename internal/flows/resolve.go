package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/contactAuth/principal"
	"github.com/MrEthical07/contactAuth/session"
)

type ResolveFailureKind int

const (
	ResolveFailureNone ResolveFailureKind = iota
	ResolveFailureDecode
	ResolveFailureScope
	ResolveFailureNoSubject
	ResolveFailureUnknownSubject
	ResolveFailureLookup
	ResolveFailureCache
)

type ResolveResult struct {
	Failure  ResolveFailureKind
	Err      error
	Snapshot session.Snapshot
	CacheHit bool
	// Corrupt is set when a cached blob failed to decode and was replaced.
	Corrupt bool
}

type ResolveDeps struct {
	Codec    TokenCodec
	Cache    SnapshotCache
	Store    principal.Store
	CacheTTL time.Duration
}

// RunResolve maps an access token to the current principal snapshot, reading
// through the cache. A hit performs no store call.
func RunResolve(ctx context.Context, token string, deps ResolveDeps) ResolveResult {
	decoded, err := deps.Codec.Decode(token)
	if err != nil {
		return ResolveResult{Failure: ResolveFailureDecode, Err: err}
	}
	at, ok := decoded.AsAccess()
	if !ok {
		return ResolveResult{Failure: ResolveFailureScope}
	}
	if at.Subject == "" {
		return ResolveResult{Failure: ResolveFailureNoSubject}
	}

	var corrupt bool
	snap, err := deps.Cache.Get(ctx, at.Subject)
	switch {
	case err == nil:
		return ResolveResult{Snapshot: snap, CacheHit: true}
	case errors.Is(err, session.ErrCorruptEntry):
		corrupt = true
	case !errors.Is(err, session.ErrCacheMiss):
		return ResolveResult{Failure: ResolveFailureCache, Err: err}
	}

	p, err := deps.Store.FindByEmail(ctx, at.Subject)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return ResolveResult{Failure: ResolveFailureUnknownSubject, Err: err, Corrupt: corrupt}
		}
		return ResolveResult{Failure: ResolveFailureLookup, Err: err, Corrupt: corrupt}
	}

	snap = p.Snapshot()
	if err := deps.Cache.Put(ctx, at.Subject, snap, deps.CacheTTL); err != nil {
		return ResolveResult{Failure: ResolveFailureCache, Err: err, Corrupt: corrupt}
	}

	return ResolveResult{Snapshot: snap, Corrupt: corrupt}
}
