package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/contactAuth/principal"
)

type RequestEmailFailureKind int

const (
	RequestEmailFailureNone RequestEmailFailureKind = iota
	RequestEmailFailureLookup
	RequestEmailFailureIssue
)

type RequestEmailResult struct {
	Failure RequestEmailFailureKind
	Err     error
	// Unknown is set when no principal has the email. Callers answer the
	// same way as for a sent email.
	Unknown          bool
	AlreadyConfirmed bool
	Principal        principal.Principal
	VerifyToken      string
}

type RequestEmailDeps struct {
	Store principal.Store
	Codec TokenCodec
}

// RunRequestEmail issues a fresh email_verify token for an unconfirmed
// principal.
func RunRequestEmail(ctx context.Context, email string, deps RequestEmailDeps) RequestEmailResult {
	p, err := deps.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return RequestEmailResult{Unknown: true}
		}
		return RequestEmailResult{Failure: RequestEmailFailureLookup, Err: err}
	}
	if p.Confirmed {
		return RequestEmailResult{AlreadyConfirmed: true, Principal: p}
	}

	token, err := deps.Codec.IssueEmailVerify(p.Email)
	if err != nil {
		return RequestEmailResult{Failure: RequestEmailFailureIssue, Err: err, Principal: p}
	}
	return RequestEmailResult{Principal: p, VerifyToken: token}
}
