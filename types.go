package contactAuth

import (
	"context"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/contactAuth/internal/audit"
	"github.com/MrEthical07/contactAuth/principal"
	"github.com/MrEthical07/contactAuth/session"
)

// Principal is an authenticated account as the store holds it.
type Principal = principal.Principal

// PrincipalSnapshot is the cacheable projection of a Principal. It never
// carries the password hash or the refresh token.
type PrincipalSnapshot = session.Snapshot

// PrincipalStore is the primary data store the Engine reads principals from
// and persists refresh tokens and confirmation to.
type PrincipalStore = principal.Store

// Pinger is implemented by stores that can report their health.
type Pinger = principal.Pinger

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type SignUpRequest struct {
	Email       string
	DisplayName string
	Password    string
	// Avatar overrides the Gravatar default when set.
	Avatar *string
}

type ConfirmResult struct {
	Email            string
	Confirmed        bool
	AlreadyConfirmed bool
}

// RequestEmailResult deliberately looks the same for unknown and unconfirmed
// addresses.
type RequestEmailResult struct {
	AlreadyConfirmed bool
}

// Notifier delivers verification emails. It is called from a background
// goroutine after the request that triggered it has returned.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, displayName, verifyToken string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, email, displayName, verifyToken string) error

func (f NotifierFunc) SendVerificationEmail(ctx context.Context, email, displayName, verifyToken string) error {
	return f(ctx, email, displayName, verifyToken)
}

// AvatarStorage stores avatar images and returns their public URL.
type AvatarStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type AuditEvent = internalaudit.Event

type AuditSink = internalaudit.Sink

type NoOpSink = internalaudit.NoOpSink

type ChannelSink = internalaudit.ChannelSink

type JSONWriterSink = internalaudit.JSONWriterSink

type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink writes audit events as structured log records.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
