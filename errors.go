package contactAuth

import (
	"errors"

	"github.com/MrEthical07/contactAuth/principal"
)

var (
	// ErrAccountExists is returned by SignUp when the email is already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrUnauthorized is the generic authentication failure.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidEmail is returned by Login when no principal has the email.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrEmailNotConfirmed is returned by Login before the email is verified.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrInvalidPassword is returned by Login when the password does not verify.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrTokenInvalid covers every signature, format and expiry failure.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenScope is returned when a valid token is presented to the wrong flow.
	ErrTokenScope = errors.New("token scope not accepted")
	// ErrRefreshReuse is returned when a refresh token does not match the
	// stored one. The stored token has been revoked by the time it is returned.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrPrincipalGone is returned when a token subject no longer exists.
	ErrPrincipalGone = errors.New("principal no longer exists")

	ErrBadRequest = errors.New("bad request")
	// ErrVerification is returned by ConfirmEmail when a valid token names no
	// principal.
	ErrVerification = errors.New("verification error")
	// ErrInvalidSignUp is returned when the sign-up request fails validation.
	ErrInvalidSignUp = errors.New("invalid sign-up request")
	ErrInvalidAvatar = errors.New("invalid avatar")

	ErrLoginRateLimited   = errors.New("login rate limited")
	ErrRequestRateLimited = errors.New("request rate limited")

	ErrStoreUnavailable = errors.New("principal store unavailable")
	ErrCacheUnavailable = errors.New("session cache unavailable")
	ErrTokenIssue       = errors.New("token issue failed")
	ErrHashFailure      = errors.New("password hashing failed")
	ErrAvatarUpload     = errors.New("avatar upload failed")
	ErrEngineNotReady   = errors.New("engine not initialized")
)

// Store contract errors, re-exported for PrincipalStore implementations.
var (
	ErrPrincipalNotFound = principal.ErrNotFound
	ErrPrincipalExists   = principal.ErrExists
)

// ErrorKind groups Engine errors by how a transport should answer them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConflict
	KindUnauthorized
	KindBadRequest
	KindRateLimited
	KindInfrastructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindRateLimited:
		return "rate_limited"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

var kindTable = []struct {
	kind ErrorKind
	errs []error
}{
	{KindInfrastructure, []error{
		ErrStoreUnavailable, ErrCacheUnavailable, ErrTokenIssue,
		ErrHashFailure, ErrAvatarUpload, ErrEngineNotReady,
	}},
	{KindConflict, []error{ErrAccountExists, ErrPrincipalExists}},
	{KindRateLimited, []error{ErrLoginRateLimited, ErrRequestRateLimited}},
	{KindBadRequest, []error{ErrBadRequest, ErrVerification, ErrInvalidSignUp, ErrInvalidAvatar}},
	{KindUnauthorized, []error{
		ErrUnauthorized, ErrInvalidEmail, ErrEmailNotConfirmed, ErrInvalidPassword,
		ErrTokenInvalid, ErrTokenScope, ErrRefreshReuse, ErrPrincipalGone,
	}},
}

// KindOf classifies err. Infrastructure wins over the other kinds so a
// wrapped outage is never reported as a client error. Errors the Engine did
// not produce are KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, row := range kindTable {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.kind
			}
		}
	}
	return KindUnknown
}
