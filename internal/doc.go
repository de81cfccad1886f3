// Package internal contains helper utilities that are intentionally private to persontric,
// most importantly session id generation from a cryptographically secure source.
//
// # What this package must NOT do
//
//   - Export types that appear in the public persontric API.
//   - Be imported by any package outside the persontric module.
package internal
