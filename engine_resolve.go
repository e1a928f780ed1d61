package contactAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/contactAuth/internal/flows"
)

// CurrentPrincipal resolves an access token to the principal it was issued
// for. Snapshots are read through the session cache; a hit costs one token
// decode and one Redis round trip and never touches the store.
func (e *Engine) CurrentPrincipal(ctx context.Context, accessToken string) (PrincipalSnapshot, error) {
	if !e.ready() {
		return PrincipalSnapshot{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricResolveLatency, start)

	res := e.flows.Resolve(ctx, accessToken)

	if res.Corrupt {
		e.metricInc(MetricCacheCorrupt)
		e.logger.WarnContext(ctx, "corrupt cache entry replaced", "email", res.Snapshot.Email)
	}

	switch res.Failure {
	case flows.ResolveFailureNone:
		if res.CacheHit {
			e.metricInc(MetricCacheHit)
		} else {
			e.metricInc(MetricCacheMiss)
		}
		e.metricInc(MetricResolveSuccess)
		return res.Snapshot, nil

	case flows.ResolveFailureDecode, flows.ResolveFailureNoSubject:
		e.metricInc(MetricResolveFailure)
		e.logger.DebugContext(ctx, "access token rejected", "error", res.Err)
		return PrincipalSnapshot{}, ErrTokenInvalid
	case flows.ResolveFailureScope:
		e.metricInc(MetricResolveFailure)
		return PrincipalSnapshot{}, ErrTokenScope
	case flows.ResolveFailureUnknownSubject:
		e.metricInc(MetricResolveFailure)
		return PrincipalSnapshot{}, ErrPrincipalGone

	case flows.ResolveFailureCache:
		e.metricInc(MetricResolveFailure)
		e.logInfra(ctx, "session cache unavailable", res.Err)
		return PrincipalSnapshot{}, cacheErr(res.Err)
	default:
		e.metricInc(MetricResolveFailure)
		e.logInfra(ctx, "principal lookup failed", res.Err)
		return PrincipalSnapshot{}, storeErr(res.Err)
	}
}
