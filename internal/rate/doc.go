// Package rate implements the Redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR plus EXPIRE on the first hit of a window. Keys:
//   - al:{email}  failed logins per account
//   - ali:{ip}    failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide what counts as a failure. The login flow calls Increment.
//   - Be imported outside the contactAuth module.
package rate
