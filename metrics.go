package contactAuth

import internalmetrics "github.com/MrEthical07/contactAuth/internal/metrics"

type MetricID = internalmetrics.MetricID

const (
	MetricSignUpSuccess            = internalmetrics.SignUpSuccess
	MetricSignUpDuplicate          = internalmetrics.SignUpDuplicate
	MetricSignUpInvalid            = internalmetrics.SignUpInvalid
	MetricLoginSuccess             = internalmetrics.LoginSuccess
	MetricLoginFailure             = internalmetrics.LoginFailure
	MetricLoginRateLimited         = internalmetrics.LoginRateLimited
	MetricRefreshSuccess           = internalmetrics.RefreshSuccess
	MetricRefreshFailure           = internalmetrics.RefreshFailure
	MetricRefreshReuseDetected     = internalmetrics.RefreshReuseDetected
	MetricRefreshRaceLost          = internalmetrics.RefreshRaceLost
	MetricEmailConfirmed           = internalmetrics.EmailConfirmed
	MetricEmailConfirmFailure      = internalmetrics.EmailConfirmFailure
	MetricEmailVerificationRequest = internalmetrics.EmailVerificationRequest
	MetricNotifyFailure            = internalmetrics.NotifyFailure
	MetricResolveSuccess           = internalmetrics.ResolveSuccess
	MetricResolveFailure           = internalmetrics.ResolveFailure
	MetricCacheHit                 = internalmetrics.CacheHit
	MetricCacheMiss                = internalmetrics.CacheMiss
	MetricCacheCorrupt             = internalmetrics.CacheCorrupt
	MetricAvatarUpdated            = internalmetrics.AvatarUpdated
	MetricInfraFailure             = internalmetrics.InfraFailure
	MetricLoginLatency             = internalmetrics.LoginLatency
	MetricResolveLatency           = internalmetrics.ResolveLatency
)

type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot = internalmetrics.Snapshot

func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
