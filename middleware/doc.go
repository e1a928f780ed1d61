// Package middleware exposes the per-request guard that turns a bearer
// access token into a resolved principal.
//
// [Guard] reads the Authorization header, calls the resolver (normally
// contactAuth.Engine.CurrentPrincipal) and stores the snapshot in the request
// context, where handlers read it back with [PrincipalFromContext].
//
// The guard does not parse tokens or talk to Redis itself. It only translates
// the resolver's result into HTTP: 401 with a Bearer challenge for token and
// principal failures, 503 for infrastructure failures.
package middleware
