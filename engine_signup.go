package contactAuth

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/contactAuth/internal/flows"
	"github.com/MrEthical07/contactAuth/password"
)

const (
	maxEmailLength       = 250
	minDisplayNameLength = 2
	maxDisplayNameLength = 16
	minPasswordLength    = 6
)

// SignUp registers an unconfirmed principal and sends it a verification
// email in the background. No tokens are returned; the principal must
// confirm before it can log in. The returned Principal has no password hash.
func (e *Engine) SignUp(ctx context.Context, req SignUpRequest) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}

	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validateSignUp(req); err != nil {
		e.metricInc(MetricSignUpInvalid)
		return Principal{}, err
	}
	if req.Avatar == nil {
		avatar := gravatarURL(req.Email)
		req.Avatar = &avatar
	}

	res := e.flows.SignUp(ctx, flows.SignUpRequest{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Avatar:      req.Avatar,
	})

	switch res.Failure {
	case flows.SignUpFailureNone:
	case flows.SignUpFailureExists:
		e.metricInc(MetricSignUpDuplicate)
		e.emitAudit(ctx, auditEventSignUpDuplicate, false, req.Email, ErrAccountExists, nil)
		return Principal{}, ErrAccountExists
	case flows.SignUpFailureHash:
		if errors.Is(res.Err, password.ErrPasswordTooLong) || errors.Is(res.Err, password.ErrEmptyPassword) {
			e.metricInc(MetricSignUpInvalid)
			return Principal{}, fmt.Errorf("%w: %v", ErrInvalidSignUp, res.Err)
		}
		e.logInfra(ctx, "password hashing failed", res.Err)
		return Principal{}, fmt.Errorf("%w: %v", ErrHashFailure, res.Err)
	default:
		e.logInfra(ctx, "sign-up store call failed", res.Err, "email", req.Email)
		return Principal{}, storeErr(res.Err)
	}

	created := res.Principal
	created.PasswordHash = ""

	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUpSuccess, true, created.Email, nil, nil)

	if res.VerifyErr != nil {
		// The account exists; the user can ask for a new link.
		e.logInfra(ctx, "verification token issue failed", res.VerifyErr, "email", created.Email)
		return created, nil
	}
	e.sendVerification(ctx, created.Email, created.DisplayName, res.VerifyToken)
	return created, nil
}

func validateSignUp(req SignUpRequest) error {
	if req.Email == "" || len(req.Email) > maxEmailLength {
		return fmt.Errorf("%w: email must be 1-%d characters", ErrInvalidSignUp, maxEmailLength)
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidSignUp)
	}
	if n := utf8.RuneCountInString(req.DisplayName); n < minDisplayNameLength || n > maxDisplayNameLength {
		return fmt.Errorf("%w: display name must be %d-%d characters", ErrInvalidSignUp, minDisplayNameLength, maxDisplayNameLength)
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignUp, minPasswordLength)
	}
	if req.Avatar != nil {
		u, err := url.Parse(*req.Avatar)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %w", ErrInvalidSignUp, ErrInvalidAvatar)
		}
	}
	return nil
}

// gravatarURL is the identicon default avatar for email.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}

// sendVerification delivers the token off the request path. The send gets
// its own timeout and survives cancellation of ctx; failures are logged only.
func (e *Engine) sendVerification(ctx context.Context, email, displayName, token string) {
	if e.notifier == nil {
		e.logger.DebugContext(ctx, "no notifier configured, verification email skipped", "email", email)
		return
	}

	e.sendMu.Lock()
	if e.closed {
		e.sendMu.Unlock()
		e.logger.WarnContext(ctx, "engine closed, verification email skipped", "email", email)
		return
	}
	e.pending.Add(1)
	e.sendMu.Unlock()

	go func() {
		defer e.pending.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Notify.Timeout)
		defer cancel()

		if err := e.notifier.SendVerificationEmail(sendCtx, email, displayName, token); err != nil {
			e.metricInc(MetricNotifyFailure)
			e.logger.ErrorContext(sendCtx, "verification email failed", "email", email, "error", err)
		}
	}()
}
