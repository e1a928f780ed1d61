package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/contactAuth/principal"
)

type ConfirmFailureKind int

const (
	ConfirmFailureNone ConfirmFailureKind = iota
	ConfirmFailureDecode
	ConfirmFailureScope
	ConfirmFailureUnknownSubject
	ConfirmFailureLookup
	ConfirmFailureSave
)

type ConfirmResult struct {
	Failure          ConfirmFailureKind
	Err              error
	Email            string
	AlreadyConfirmed bool
	// CacheErr records a failed cache expiry after a successful confirmation.
	CacheErr error
}

type ConfirmDeps struct {
	Store principal.Store
	Codec TokenCodec
	Cache SnapshotCache
	// StrictScope accepts only email_verify tokens. When false, any token
	// with a valid signature and expiry is accepted.
	StrictScope bool
}

// RunConfirmEmail marks the token subject's principal as confirmed. It is
// idempotent for principals that are already confirmed.
func RunConfirmEmail(ctx context.Context, token string, deps ConfirmDeps) ConfirmResult {
	decoded, err := deps.Codec.Decode(token)
	if err != nil {
		return ConfirmResult{Failure: ConfirmFailureDecode, Err: err}
	}

	email := decoded.Claims().Subject
	if deps.StrictScope {
		vt, ok := decoded.AsEmailVerify()
		if !ok {
			return ConfirmResult{Failure: ConfirmFailureScope, Email: email}
		}
		email = vt.Subject
	}

	p, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return ConfirmResult{Failure: ConfirmFailureUnknownSubject, Err: err, Email: email}
		}
		return ConfirmResult{Failure: ConfirmFailureLookup, Err: err, Email: email}
	}

	if p.Confirmed {
		return ConfirmResult{Email: email, AlreadyConfirmed: true}
	}

	p.Confirmed = true
	if err := deps.Store.Save(ctx, p); err != nil {
		return ConfirmResult{Failure: ConfirmFailureSave, Err: err, Email: email}
	}

	result := ConfirmResult{Email: email}
	if deps.Cache != nil {
		result.CacheErr = deps.Cache.Expire(ctx, email)
	}
	return result
}
