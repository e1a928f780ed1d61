package contactAuth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MrEthical07/contactAuth/internal/flows"
)

// Refresh exchanges the principal's current refresh token for a new pair.
// Presenting any other refresh token, including one already rotated away,
// revokes the stored token so the principal must log in again.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)

	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.Subject, nil, nil)
		return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil

	case flows.RefreshFailureDecode:
		e.logger.DebugContext(ctx, "refresh token rejected", "error", res.Err)
		return TokenPair{}, e.refreshRejected(ctx, "", ErrTokenInvalid)
	case flows.RefreshFailureScope:
		return TokenPair{}, e.refreshRejected(ctx, res.Subject, ErrTokenScope)
	case flows.RefreshFailureUnknownSubject:
		return TokenPair{}, e.refreshRejected(ctx, res.Subject, ErrPrincipalGone)

	case flows.RefreshFailureReuse:
		e.metricInc(MetricRefreshReuseDetected)
		if res.LostRace {
			e.metricInc(MetricRefreshRaceLost)
		}
		e.emitAudit(ctx, auditEventRefreshReuseDetected, false, res.Subject, ErrRefreshReuse, func() map[string]string {
			return map[string]string{"lost_race": strconv.FormatBool(res.LostRace)}
		})
		e.logger.WarnContext(ctx, "refresh token reuse, stored token revoked",
			"email", res.Subject, "lost_race", res.LostRace)
		if res.RevokeErr != nil {
			e.logInfra(ctx, "refresh revocation incomplete", res.RevokeErr, "email", res.Subject)
		}
		return TokenPair{}, ErrRefreshReuse

	case flows.RefreshFailureIssue:
		e.metricInc(MetricRefreshFailure)
		e.logInfra(ctx, "token issue failed", res.Err, "email", res.Subject)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrTokenIssue, res.Err)
	default:
		e.metricInc(MetricRefreshFailure)
		e.logInfra(ctx, "refresh store call failed", res.Err, "email", res.Subject)
		return TokenPair{}, storeErr(res.Err)
	}
}

func (e *Engine) refreshRejected(ctx context.Context, email string, err error) error {
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshInvalid, false, email, err, nil)
	return err
}
