package contactAuth

import (
	"context"

	"github.com/MrEthical07/contactAuth/internal/flows"
)

// ConfirmEmail marks the token's subject as confirmed. With
// Security.StrictConfirmScope only email_verify tokens are accepted.
// Confirming twice is not an error; the second call reports
// AlreadyConfirmed. Bad or expired tokens are ErrTokenInvalid and a token
// of another scope is ErrTokenScope; ErrVerification means the token's
// subject does not exist.
func (e *Engine) ConfirmEmail(ctx context.Context, token string) (ConfirmResult, error) {
	if !e.ready() {
		return ConfirmResult{}, ErrEngineNotReady
	}

	res := e.flows.ConfirmEmail(ctx, token)

	switch res.Failure {
	case flows.ConfirmFailureNone:
	case flows.ConfirmFailureDecode:
		e.metricInc(MetricEmailConfirmFailure)
		e.logger.DebugContext(ctx, "verification token rejected", "error", res.Err)
		return ConfirmResult{}, ErrTokenInvalid
	case flows.ConfirmFailureScope:
		e.metricInc(MetricEmailConfirmFailure)
		e.logger.DebugContext(ctx, "verification token has wrong scope", "email", res.Email)
		return ConfirmResult{}, ErrTokenScope
	case flows.ConfirmFailureUnknownSubject:
		e.metricInc(MetricEmailConfirmFailure)
		e.logger.DebugContext(ctx, "verification token names no principal", "email", res.Email)
		return ConfirmResult{}, ErrVerification
	default:
		e.metricInc(MetricEmailConfirmFailure)
		e.logInfra(ctx, "confirm store call failed", res.Err, "email", res.Email)
		return ConfirmResult{}, storeErr(res.Err)
	}

	if res.AlreadyConfirmed {
		return ConfirmResult{Email: res.Email, Confirmed: true, AlreadyConfirmed: true}, nil
	}

	if res.CacheErr != nil {
		e.logger.WarnContext(ctx, "cache expire failed after confirmation", "email", res.Email, "error", res.CacheErr)
	}
	e.metricInc(MetricEmailConfirmed)
	e.emitAudit(ctx, auditEventEmailConfirmed, true, res.Email, nil, nil)
	return ConfirmResult{Email: res.Email, Confirmed: true}, nil
}
