package contactAuth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/contactAuth/internal/flows"
)

// Login verifies email and password and returns a fresh token pair. The new
// refresh token replaces whatever the principal had stored, so at most one
// refresh token is live per principal. The email is trimmed the same way
// SignUp trims it.
func (e *Engine) Login(ctx context.Context, email, password string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	email = strings.TrimSpace(email)
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	res := e.flows.Login(ctx, email, password, clientIPFromContext(ctx))
	if res.ThrottleErr != nil {
		e.logger.WarnContext(ctx, "login throttle degraded", "email", email, "error", res.ThrottleErr)
	}

	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, email, nil, nil)
		return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil

	case flows.LoginFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, email, ErrLoginRateLimited, nil)
		return TokenPair{}, ErrLoginRateLimited

	case flows.LoginFailureUnknownEmail:
		return TokenPair{}, e.loginRejected(ctx, email, ErrInvalidEmail)
	case flows.LoginFailureUnconfirmed:
		return TokenPair{}, e.loginRejected(ctx, email, ErrEmailNotConfirmed)
	case flows.LoginFailureBadPassword:
		return TokenPair{}, e.loginRejected(ctx, email, ErrInvalidPassword)

	case flows.LoginFailureThrottleUnavailable:
		e.logInfra(ctx, "login throttle unavailable", res.Err, "email", email)
		return TokenPair{}, cacheErr(res.Err)
	case flows.LoginFailureIssue:
		e.logInfra(ctx, "token issue failed", res.Err, "email", email)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
	default:
		e.logInfra(ctx, "login store call failed", res.Err, "email", email)
		return TokenPair{}, storeErr(res.Err)
	}
}

func (e *Engine) loginRejected(ctx context.Context, email string, err error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, email, err, nil)
	e.logger.WarnContext(ctx, "login rejected", "email", email, "reason", err.Error())
	return err
}
