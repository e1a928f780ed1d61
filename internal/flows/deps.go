package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/contactAuth/jwt"
	"github.com/MrEthical07/contactAuth/session"
)

// TokenCodec is the subset of jwt.Codec used by flows.
type TokenCodec interface {
	IssueAccess(subject string) (string, error)
	IssueRefresh(subject string) (string, error)
	IssueEmailVerify(subject string) (string, error)
	Decode(token string) (jwt.DecodedToken, error)
}

// Hasher is the subset of password.Argon2 used by flows.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// SnapshotCache is the subset of session.Cache used by flows.
type SnapshotCache interface {
	Get(ctx context.Context, email string) (session.Snapshot, error)
	Put(ctx context.Context, email string, s session.Snapshot, ttl time.Duration) error
	Expire(ctx context.Context, email string) error
}

// LoginThrottle is the subset of rate.Limiter used by the login flow.
type LoginThrottle interface {
	Check(ctx context.Context, email, ip string) error
	Increment(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email string) error
}

// Deps groups flow dependency sets. The Engine builds it once.
type Deps struct {
	SignUp       SignUpDeps
	Login        LoginDeps
	Refresh      RefreshDeps
	Confirm      ConfirmDeps
	Resolve      ResolveDeps
	RequestEmail RequestEmailDeps
	Avatar       AvatarDeps
}
