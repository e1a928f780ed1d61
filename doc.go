// Package contactAuth authenticates principals of the contact-management API
// and resolves the current principal on every request.
//
// An [Engine] is assembled once with [New] and [Builder.Build] and is safe for
// concurrent use afterwards. It runs five flows:
//
//   - SignUp creates an unconfirmed principal and mails a verification link.
//   - Login checks the password and returns an access/refresh [TokenPair].
//   - Refresh rotates the refresh token. Each refresh token works once; a
//     replayed token revokes the stored one.
//   - ConfirmEmail marks the principal confirmed.
//   - CurrentPrincipal maps an access token to a [PrincipalSnapshot], read
//     through a Redis cache so the primary store is not hit per request.
//
// Errors are sentinels grouped by [ErrorKind]; use [KindOf] to pick a transport
// status. Cache and store outages are always KindInfrastructure and never
// surface as an authentication failure.
//
// The Engine depends only on the [PrincipalStore], [Notifier] and
// [AvatarStorage] interfaces. Postgres, SMTP and S3 implementations live under
// internal/ and are wired by cmd/contactauth.
package contactAuth
