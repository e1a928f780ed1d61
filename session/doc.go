// Package session provides the Redis-backed read-through cache that maps a
// principal's email to its current profile [Snapshot].
//
// # Staleness
//
// An entry is a read replica, never the source of truth. Writers that go
// through the Engine call [Cache.Expire] after mutating a principal; writes
// made outside the Engine remain invisible for at most the configured TTL
// (900s by default).
//
// # Binary encoding
//
// Snapshots are stored as a compact versioned binary blob (see [Encode]).
// Password digests and refresh tokens are never part of a snapshot.
//
// # What this package must NOT do
//
//   - Import contactAuth, jwt or password (no upward imports).
//   - Decide whether a principal is authorised. It only stores what it is given.
package session
