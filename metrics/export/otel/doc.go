// Package otel mirrors engine metrics into OpenTelemetry observable
// instruments.
//
// [New] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per histogram bucket. A single callback reads
// contactAuth.Engine.MetricsSnapshot on each collection cycle. Callers own
// the MeterProvider.
package otel
