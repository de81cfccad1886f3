// Package middleware exposes net/http adapters that authenticate requests through a
// persontric.Engine.
//
// # Guards
//
//   - [Guard] accepts a bearer token or the session cookie.
//   - [RequireBearer] accepts only the Authorization header.
//   - [RequireCookie] accepts only the session cookie and checks the request origin.
//
// A guard resolves the session id, calls Engine.ValidateSession, and stores the
// resulting [AuthResult] in the request context. Renewed sessions that arrived by cookie
// get a refreshed Set-Cookie header; rejected cookies are replaced with a blank one.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Expiry, renewal, and orphan
// decisions are made by the engine.
//
// # What this package must NOT do
//
//   - Access the adapter directly.
//   - Make authorization decisions beyond pass/reject.
package middleware
