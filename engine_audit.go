package contactAuth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventSignUpSuccess            = "signup_success"
	auditEventSignUpDuplicate          = "signup_duplicate"
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLoginRateLimited         = "login_rate_limited"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshInvalid           = "refresh_invalid"
	auditEventRefreshReuseDetected     = "refresh_reuse_detected"
	auditEventEmailConfirmed           = "email_confirmed"
	auditEventEmailVerificationRequest = "email_verification_request"
	auditEventAvatarUpdated            = "avatar_updated"
)

// criticalAuditEvents are security signals that are never dropped under
// audit backpressure.
var criticalAuditEvents = []string{
	auditEventRefreshReuseDetected,
	auditEventLoginRateLimited,
}

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidEmail    AuditErrorCode = "invalid_email"
	auditErrNotConfirmed    AuditErrorCode = "email_not_confirmed"
	auditErrInvalidPassword AuditErrorCode = "invalid_password"
	auditErrInvalidToken    AuditErrorCode = "invalid_token"
	auditErrTokenScope      AuditErrorCode = "token_scope"
	auditErrRefreshReuse    AuditErrorCode = "refresh_reuse"
	auditErrPrincipalGone   AuditErrorCode = "principal_gone"
	auditErrRateLimited     AuditErrorCode = "rate_limited"
	auditErrDuplicate       AuditErrorCode = "duplicate"
	auditErrBadRequest      AuditErrorCode = "bad_request"
	auditErrUnavailable     AuditErrorCode = "backend_unavailable"
	auditErrUnauthorized    AuditErrorCode = "unauthorized"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case KindOf(err) == KindInfrastructure:
		return auditErrUnavailable
	case errors.Is(err, ErrInvalidEmail):
		return auditErrInvalidEmail
	case errors.Is(err, ErrEmailNotConfirmed):
		return auditErrNotConfirmed
	case errors.Is(err, ErrInvalidPassword):
		return auditErrInvalidPassword
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrVerification):
		return auditErrInvalidToken
	case errors.Is(err, ErrTokenScope):
		return auditErrTokenScope
	case errors.Is(err, ErrRefreshReuse):
		return auditErrRefreshReuse
	case errors.Is(err, ErrPrincipalGone):
		return auditErrPrincipalGone
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrRequestRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case KindOf(err) == KindBadRequest:
		return auditErrBadRequest
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	default:
		return auditErrInternal
	}
}
