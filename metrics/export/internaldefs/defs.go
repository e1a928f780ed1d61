package internaldefs

import (
	contactAuth "github.com/MrEthical07/contactAuth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   contactAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   contactAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for events the audit dispatcher dropped.
const AuditDroppedName = "contactauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: contactAuth.MetricSignUpSuccess, Name: "contactauth_signup_success_total", Help: "Successful sign-ups."},
	{ID: contactAuth.MetricSignUpDuplicate, Name: "contactauth_signup_duplicate_total", Help: "Sign-ups rejected because the email is taken."},
	{ID: contactAuth.MetricSignUpInvalid, Name: "contactauth_signup_invalid_total", Help: "Sign-ups rejected by input validation."},
	{ID: contactAuth.MetricLoginSuccess, Name: "contactauth_login_success_total", Help: "Successful login attempts."},
	{ID: contactAuth.MetricLoginFailure, Name: "contactauth_login_failure_total", Help: "Failed login attempts."},
	{ID: contactAuth.MetricLoginRateLimited, Name: "contactauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: contactAuth.MetricRefreshSuccess, Name: "contactauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: contactAuth.MetricRefreshFailure, Name: "contactauth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: contactAuth.MetricRefreshReuseDetected, Name: "contactauth_refresh_reuse_detected_total", Help: "Refresh tokens presented after rotation or revocation."},
	{ID: contactAuth.MetricRefreshRaceLost, Name: "contactauth_refresh_race_lost_total", Help: "Concurrent refreshes that lost the rotation swap."},
	{ID: contactAuth.MetricEmailConfirmed, Name: "contactauth_email_confirmed_total", Help: "Email confirmations."},
	{ID: contactAuth.MetricEmailConfirmFailure, Name: "contactauth_email_confirm_failure_total", Help: "Rejected email confirmations."},
	{ID: contactAuth.MetricEmailVerificationRequest, Name: "contactauth_email_verification_request_total", Help: "Verification emails requested."},
	{ID: contactAuth.MetricNotifyFailure, Name: "contactauth_notify_failure_total", Help: "Verification emails that failed to send."},
	{ID: contactAuth.MetricResolveSuccess, Name: "contactauth_resolve_success_total", Help: "Access tokens resolved to a principal."},
	{ID: contactAuth.MetricResolveFailure, Name: "contactauth_resolve_failure_total", Help: "Access tokens that did not resolve."},
	{ID: contactAuth.MetricCacheHit, Name: "contactauth_cache_hit_total", Help: "Session cache hits."},
	{ID: contactAuth.MetricCacheMiss, Name: "contactauth_cache_miss_total", Help: "Session cache misses."},
	{ID: contactAuth.MetricCacheCorrupt, Name: "contactauth_cache_corrupt_total", Help: "Undecodable session cache entries replaced."},
	{ID: contactAuth.MetricAvatarUpdated, Name: "contactauth_avatar_updated_total", Help: "Avatar uploads."},
	{ID: contactAuth.MetricInfraFailure, Name: "contactauth_infra_failure_total", Help: "Store, cache or signer failures."},
}

var HistogramDefs = []HistogramDef{
	{ID: contactAuth.MetricLoginLatency, Name: "contactauth_login_latency_seconds", Help: "Login latency histogram."},
	{ID: contactAuth.MetricResolveLatency, Name: "contactauth_resolve_latency_seconds", Help: "Principal resolve latency histogram."},
}

// HistogramUpperBounds holds the finite bucket bounds in seconds. The engine
// keeps one more bucket for +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
