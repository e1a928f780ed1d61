package flows

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MrEthical07/contactAuth/principal"
)

type AvatarFailureKind int

const (
	AvatarFailureNone AvatarFailureKind = iota
	AvatarFailureUnknownSubject
	AvatarFailureLookup
	AvatarFailureUpload
	AvatarFailureSave
)

// AvatarUploader stores image bytes under key and returns a public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type AvatarUpload struct {
	Email       string
	Body        io.Reader
	Size        int64
	ContentType string
}

type AvatarResult struct {
	Failure   AvatarFailureKind
	Err       error
	Principal principal.Principal
	CacheErr  error
}

type AvatarDeps struct {
	Store    principal.Store
	Cache    SnapshotCache
	Uploader AvatarUploader
}

// RunUpdateAvatar uploads the image, stores its URL on the principal and
// expires the cached snapshot.
func RunUpdateAvatar(ctx context.Context, in AvatarUpload, deps AvatarDeps) AvatarResult {
	p, err := deps.Store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return AvatarResult{Failure: AvatarFailureUnknownSubject, Err: err}
		}
		return AvatarResult{Failure: AvatarFailureLookup, Err: err}
	}

	url, err := deps.Uploader.Upload(ctx, fmt.Sprintf("avatars/%d", p.ID), in.Body, in.Size, in.ContentType)
	if err != nil {
		return AvatarResult{Failure: AvatarFailureUpload, Err: err}
	}

	p.Avatar = &url
	if err := deps.Store.Save(ctx, p); err != nil {
		return AvatarResult{Failure: AvatarFailureSave, Err: err}
	}

	result := AvatarResult{Principal: p}
	if deps.Cache != nil {
		result.CacheErr = deps.Cache.Expire(ctx, p.Email)
	}
	return result
}
