// Package password implements password hashing and verification with Argon2id.
//
// # Output format
//
// Digests are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.Verify] never fails on a malformed digest; it reports false. Callers
// that need to tell a corrupt digest from a wrong password use
// [Argon2.NeedsUpgrade], which surfaces [ErrMalformedDigest].
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Enforce password policy (minimum length). The Engine owns policy.
//   - Import any other contactAuth package.
package password
