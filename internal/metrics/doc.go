// Package metrics holds the Engine's flow counters and latency histograms.
//
// Counters sit in cache-line padded slots and are bumped with atomic adds, so
// the write path never allocates or locks. Histograms use eight fixed buckets
// from 5ms to +Inf. Exporters in metrics/export read Snapshot values; this
// package performs no I/O.
package metrics
