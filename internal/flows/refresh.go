package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/contactAuth/principal"
)

type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureDecode
	RefreshFailureScope
	RefreshFailureUnknownSubject
	RefreshFailureLookup
	RefreshFailureReuse
	RefreshFailureIssue
	RefreshFailureSwap
)

type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	Subject      string
	AccessToken  string
	RefreshToken string
	// RevokeErr is set when clearing the stored token after a mismatch failed.
	RevokeErr error
	// LostRace is set when the stored token matched on read but the swap lost
	// to a concurrent rotation.
	LostRace bool
}

type RefreshDeps struct {
	Store principal.Store
	Codec TokenCodec
	Cache SnapshotCache
}

// RunRefresh exchanges a refresh token for a new pair. The presented token
// must equal the stored one; the replacement is written with a
// compare-and-swap so two concurrent callers cannot both succeed. Any
// mismatch clears the stored token, forcing a fresh login.
func RunRefresh(ctx context.Context, token string, deps RefreshDeps) RefreshResult {
	decoded, err := deps.Codec.Decode(token)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}
	rt, ok := decoded.AsRefresh()
	if !ok {
		return RefreshResult{Failure: RefreshFailureScope, Subject: decoded.Claims().Subject}
	}
	email := rt.Subject

	p, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureUnknownSubject, Err: err, Subject: email}
		}
		return RefreshResult{Failure: RefreshFailureLookup, Err: err, Subject: email}
	}

	if p.RefreshToken == nil || *p.RefreshToken != token {
		return revoke(ctx, email, false, deps)
	}

	access, err := deps.Codec.IssueAccess(email)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Subject: email}
	}
	next, err := deps.Codec.IssueRefresh(email)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Subject: email}
	}

	swapped, err := deps.Store.SwapRefreshToken(ctx, email, token, &next)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureSwap, Err: err, Subject: email}
	}
	if !swapped {
		return revoke(ctx, email, true, deps)
	}

	return RefreshResult{
		Subject:      email,
		AccessToken:  access,
		RefreshToken: next,
	}
}

func revoke(ctx context.Context, email string, lostRace bool, deps RefreshDeps) RefreshResult {
	result := RefreshResult{
		Failure:  RefreshFailureReuse,
		Subject:  email,
		LostRace: lostRace,
	}
	if err := deps.Store.SetRefreshToken(ctx, email, nil); err != nil {
		result.RevokeErr = err
	}
	if deps.Cache != nil {
		if err := deps.Cache.Expire(ctx, email); err != nil {
			result.RevokeErr = errors.Join(result.RevokeErr, err)
		}
	}
	return result
}
