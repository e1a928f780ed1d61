// Package audit delivers security events from the auth flows to a pluggable
// sink without blocking the request path.
//
// The Engine decides which events exist and when they fire. This package only
// buffers them on a bounded channel drained by a single goroutine, and counts
// what it had to drop. It must not import the root package.
package audit
