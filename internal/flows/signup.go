package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/contactAuth/principal"
)

type SignUpFailureKind int

const (
	SignUpFailureNone SignUpFailureKind = iota
	SignUpFailureExists
	SignUpFailureLookup
	SignUpFailureHash
	SignUpFailureCreate
)

// SignUpRequest has already passed policy validation when it reaches the flow.
type SignUpRequest struct {
	Email       string
	DisplayName string
	Password    string
	Avatar      *string
}

// SignUpResult carries the created principal. VerifyToken is empty and
// VerifyErr set when the principal was created but no verification token
// could be issued.
type SignUpResult struct {
	Failure     SignUpFailureKind
	Err         error
	Principal   principal.Principal
	VerifyToken string
	VerifyErr   error
}

type SignUpDeps struct {
	Store  principal.Store
	Hasher Hasher
	Codec  TokenCodec
}

// RunSignUp creates an unconfirmed principal and issues its email_verify
// token. Sending the token is left to the caller.
func RunSignUp(ctx context.Context, req SignUpRequest, deps SignUpDeps) SignUpResult {
	_, err := deps.Store.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return SignUpResult{Failure: SignUpFailureExists, Err: principal.ErrExists}
	case !errors.Is(err, principal.ErrNotFound):
		return SignUpResult{Failure: SignUpFailureLookup, Err: err}
	}

	digest, err := deps.Hasher.Hash(req.Password)
	if err != nil {
		return SignUpResult{Failure: SignUpFailureHash, Err: err}
	}

	created, err := deps.Store.Create(ctx, principal.Principal{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: digest,
		Avatar:       req.Avatar,
	})
	if err != nil {
		if errors.Is(err, principal.ErrExists) {
			return SignUpResult{Failure: SignUpFailureExists, Err: err}
		}
		return SignUpResult{Failure: SignUpFailureCreate, Err: err}
	}

	result := SignUpResult{Principal: created}
	result.VerifyToken, result.VerifyErr = deps.Codec.IssueEmailVerify(created.Email)
	return result
}
