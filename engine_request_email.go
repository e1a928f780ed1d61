package contactAuth

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/contactAuth/internal/flows"
)

// RequestEmail sends a new verification link to an unconfirmed principal.
// Unknown addresses get the same empty result as a successful send.
func (e *Engine) RequestEmail(ctx context.Context, email string) (RequestEmailResult, error) {
	if !e.ready() {
		return RequestEmailResult{}, ErrEngineNotReady
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return RequestEmailResult{}, fmt.Errorf("%w: email is required", ErrBadRequest)
	}

	res := e.flows.RequestEmail(ctx, email)

	switch res.Failure {
	case flows.RequestEmailFailureNone:
	case flows.RequestEmailFailureIssue:
		e.logInfra(ctx, "verification token issue failed", res.Err, "email", email)
		return RequestEmailResult{}, fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
	default:
		e.logInfra(ctx, "verification lookup failed", res.Err, "email", email)
		return RequestEmailResult{}, storeErr(res.Err)
	}

	switch {
	case res.Unknown:
		e.logger.DebugContext(ctx, "verification requested for unknown email", "email", email)
		return RequestEmailResult{}, nil
	case res.AlreadyConfirmed:
		return RequestEmailResult{AlreadyConfirmed: true}, nil
	}

	e.metricInc(MetricEmailVerificationRequest)
	e.emitAudit(ctx, auditEventEmailVerificationRequest, true, email, nil, nil)
	e.sendVerification(ctx, res.Principal.Email, res.Principal.DisplayName, res.VerifyToken)
	return RequestEmailResult{}, nil
}
