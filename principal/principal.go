package principal

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/contactAuth/session"
)

var (
	ErrNotFound = errors.New("principal not found")
	ErrExists   = errors.New("principal already exists")
)

// Principal is an account record. Email is unique and case-sensitive as
// stored.
type Principal struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	Avatar       *string
	// Confirmed only ever moves from false to true.
	Confirmed bool
	// RefreshToken is the single active refresh token, nil when absent.
	RefreshToken *string
	CreatedAt    time.Time
}

// Snapshot returns the cacheable view of p.
func (p Principal) Snapshot() session.Snapshot {
	s := session.Snapshot{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Confirmed:   p.Confirmed,
		CreatedAt:   p.CreatedAt,
	}
	if p.Avatar != nil {
		s.Avatar = *p.Avatar
	}
	return s.Normalize()
}

// Store persists principals.
//
// Save writes DisplayName, Avatar and Confirmed; it never writes
// PasswordHash or RefreshToken and never reverts Confirmed to false.
// SwapRefreshToken replaces the stored token with next only if it currently
// equals expected, and reports whether the swap happened.
type Store interface {
	FindByEmail(ctx context.Context, email string) (Principal, error)
	Create(ctx context.Context, p Principal) (Principal, error)
	Save(ctx context.Context, p Principal) error
	SetRefreshToken(ctx context.Context, email string, token *string) error
	SwapRefreshToken(ctx context.Context, email, expected string, next *string) (bool, error)
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}
