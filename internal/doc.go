// Package internal holds the private building blocks behind the contactAuth
// Engine and its binaries.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher plus Sink implementations)
//   - avatar: S3 avatar storage
//   - config: koanf-backed application configuration for cmd/contactauth
//   - flows: pure-function orchestrators for every Engine operation
//   - httpapi: chi router, handlers and the per-IP request limiter
//   - logging: slog setup with trace correlation
//   - metrics: lock-free counters and latency histograms
//   - notify: SMTP verification email delivery
//   - rate: Redis-backed fixed-window counters behind the login throttle
//   - store: memory and Postgres principal stores
package internal
