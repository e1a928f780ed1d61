package contactAuth

import (
	"context"
	"fmt"
	"io"

	"github.com/MrEthical07/contactAuth/internal/flows"
)

// MaxAvatarBytes caps UpdateAvatar uploads.
const MaxAvatarBytes = 5 << 20

var avatarContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// UpdateAvatar uploads an image for email's principal, stores its URL and
// expires the cached snapshot. It needs an AvatarStorage on the Builder.
func (e *Engine) UpdateAvatar(ctx context.Context, email string, body io.Reader, size int64, contentType string) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}
	if e.avatars == nil {
		return Principal{}, fmt.Errorf("%w: no avatar storage configured", ErrAvatarUpload)
	}
	if body == nil || size <= 0 || size > MaxAvatarBytes {
		return Principal{}, fmt.Errorf("%w: size must be 1-%d bytes", ErrInvalidAvatar, MaxAvatarBytes)
	}
	if !avatarContentTypes[contentType] {
		return Principal{}, fmt.Errorf("%w: unsupported content type %q", ErrInvalidAvatar, contentType)
	}

	res := e.flows.UpdateAvatar(ctx, flows.AvatarUpload{
		Email:       email,
		Body:        io.LimitReader(body, size),
		Size:        size,
		ContentType: contentType,
	})

	switch res.Failure {
	case flows.AvatarFailureNone:
	case flows.AvatarFailureUnknownSubject:
		return Principal{}, ErrPrincipalGone
	case flows.AvatarFailureUpload:
		e.logInfra(ctx, "avatar upload failed", res.Err, "email", email)
		return Principal{}, fmt.Errorf("%w: %v", ErrAvatarUpload, res.Err)
	default:
		e.logInfra(ctx, "avatar store call failed", res.Err, "email", email)
		return Principal{}, storeErr(res.Err)
	}

	if res.CacheErr != nil {
		e.logger.WarnContext(ctx, "cache expire failed after avatar update", "email", email, "error", res.CacheErr)
	}
	e.metricInc(MetricAvatarUpdated)
	e.emitAudit(ctx, auditEventAvatarUpdated, true, email, nil, nil)

	updated := res.Principal
	updated.PasswordHash = ""
	updated.RefreshToken = nil
	return updated, nil
}
