// Package principal defines the account record the authentication core works
// on and the store contract it consumes.
//
// The core reads every field but only writes RefreshToken, Confirmed and
// Avatar. Implementations live in internal/store; the root package re-exports
// these types.
package principal
