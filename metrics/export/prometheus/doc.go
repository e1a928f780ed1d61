// Package prometheus exposes engine metrics through a client_golang
// [Collector]. [Handler] wraps it in a dedicated registry for the /metrics
// route.
package prometheus
