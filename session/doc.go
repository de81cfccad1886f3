// Package session provides a Redis-backed persontric.Adapter with compact binary record
// encoding.
//
// # Key layout
//
//	<prefix>:s:<sessionID>   session blob, PX set to the remaining lifetime
//	<prefix>:p:<personID>    person blob, no expiry
//	<prefix>:ps:<personID>   sorted set of the person's session ids, scored by creation time
//	<prefix>:exp             sorted set of all session ids, scored by expiry (unix ms)
//
// # Binary encoding
//
// Records carry a leading schema version byte. The session layout starts with the owning
// person id so the pair-fetch Lua script can locate the person without a full decode.
//
// # Architecture boundaries
//
// This package owns Redis persistence only. Expiry, renewal, and orphan policy belong to
// persontric.Engine; the store never decides whether a session is valid.
//
// # What this package must NOT do
//
//   - Schedule sweeps; hosts call persontric.Engine.DeleteExpiredSessions.
//   - Be imported by the persontric root package (no import cycles).
//   - Store plaintext secrets in attributes.
package session
