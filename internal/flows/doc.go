// Package flows contains the orchestration for every Engine operation.
//
// Each RunX function takes a typed dependency struct and returns a result
// value carrying a FailureKind instead of a host-level error. The root Engine
// maps kinds to its public sentinel errors, metrics and audit events.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import contactAuth (to avoid import cycles).
//   - Log. Diagnostic detail travels in the result's Err field.
package flows
