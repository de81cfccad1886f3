// Package memory provides a process-local persontric.Adapter.
//
// It is intended for tests, examples, and single-process deployments where sessions
// may be lost on restart. Records are copied on the way in and on the way out, so
// callers never share maps with the store.
//
// # What this package must NOT do
//
//   - Schedule expiry sweeps (hosts call persontric.Engine.DeleteExpiredSessions).
//   - Perform I/O.
package memory
