// Package jwt issues and decodes the scoped bearer tokens used by contactAuth.
//
// Every token carries sub (principal email), iat, exp, jti and a scope claim
// naming its purpose: access, refresh or email_verify. The [Codec] is
// scope-agnostic; [Codec.Decode] verifies algorithm, signature and expiry and
// returns a [DecodedToken] whose typed accessors ([DecodedToken.AsAccess],
// [DecodedToken.AsRefresh], [DecodedToken.AsEmailVerify]) are the only way to
// reach the claims of a particular scope.
//
// # What this package must NOT do
//
//   - Persist or look up tokens. Rotation state lives in the principal store.
//   - Decide which scope an operation requires. Callers choose the accessor.
package jwt
