package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/contactAuth/internal/rate"
	"github.com/MrEthical07/contactAuth/principal"
)

type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureThrottleUnavailable
	LoginFailureLookup
	LoginFailureUnknownEmail
	LoginFailureUnconfirmed
	LoginFailureBadPassword
	LoginFailureIssue
	LoginFailurePersist
)

type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	Principal    principal.Principal
	AccessToken  string
	RefreshToken string
	// ThrottleErr records a non-fatal throttle bookkeeping failure.
	ThrottleErr error
}

type LoginDeps struct {
	Store    principal.Store
	Hasher   Hasher
	Codec    TokenCodec
	Throttle LoginThrottle
	// ThrottleFailOpen lets logins proceed when the throttle backend is down.
	ThrottleFailOpen bool
}

// RunLogin authenticates email/password and stores the new refresh token as
// the principal's only active one.
func RunLogin(ctx context.Context, email, password, ip string, deps LoginDeps) LoginResult {
	var result LoginResult

	if deps.Throttle != nil {
		if err := deps.Throttle.Check(ctx, email, ip); err != nil {
			switch {
			case errors.Is(err, rate.ErrRateLimited):
				return LoginResult{Failure: LoginFailureRateLimited, Err: err}
			case !deps.ThrottleFailOpen:
				return LoginResult{Failure: LoginFailureThrottleUnavailable, Err: err}
			default:
				result.ThrottleErr = err
			}
		}
	}

	p, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			result.ThrottleErr = errors.Join(result.ThrottleErr, recordFailure(ctx, deps.Throttle, email, ip))
			result.Failure, result.Err = LoginFailureUnknownEmail, err
			return result
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}
	result.Principal = p

	if !p.Confirmed {
		result.Failure = LoginFailureUnconfirmed
		return result
	}

	if !deps.Hasher.Verify(password, p.PasswordHash) {
		result.ThrottleErr = errors.Join(result.ThrottleErr, recordFailure(ctx, deps.Throttle, email, ip))
		result.Failure = LoginFailureBadPassword
		return result
	}

	access, err := deps.Codec.IssueAccess(p.Email)
	if err != nil {
		result.Failure, result.Err = LoginFailureIssue, err
		return result
	}
	refresh, err := deps.Codec.IssueRefresh(p.Email)
	if err != nil {
		result.Failure, result.Err = LoginFailureIssue, err
		return result
	}

	if err := deps.Store.SetRefreshToken(ctx, p.Email, &refresh); err != nil {
		result.Failure, result.Err = LoginFailurePersist, err
		return result
	}

	if deps.Throttle != nil {
		if err := deps.Throttle.Reset(ctx, email); err != nil {
			result.ThrottleErr = errors.Join(result.ThrottleErr, err)
		}
	}

	result.AccessToken = access
	result.RefreshToken = refresh
	return result
}

func recordFailure(ctx context.Context, throttle LoginThrottle, email, ip string) error {
	if throttle == nil {
		return nil
	}
	return throttle.Increment(ctx, email, ip)
}
