// Package persontric provides server-side session authentication: opaque session ids
// backed by a pluggable persistence [Adapter], sliding-expiration renewal, and cookie or
// bearer-token transport.
//
// An [Engine] is configured once through a [Builder] and is safe to call from multiple
// goroutines afterwards. The engine holds no mutable session state of its own; every
// observable change happens through adapter calls.
//
// # Architecture boundaries
//
// persontric is the public surface. It exposes [Engine], [Builder], [Config], the
// [Adapter] contract, and value types ([Session], [Person], [Cookie], [MetricsSnapshot]).
// Concrete stores live in sibling packages (memory, session, postgres); password hashing
// lives in the password package and is used by the host at login, before
// [Engine.CreateSession].
//
// # What this package must NOT do
//
//   - Keep sessions in process memory.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports persontric (no import cycles).
//
// # Validation contract
//
// [Engine.ValidateSession] is the hot path. It performs one adapter read, and at most one
// adapter write when the session is expired, orphaned, or due for renewal.
package persontric
