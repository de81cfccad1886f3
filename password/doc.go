// Package password implements password hashing and verification on top of scrypt.
//
// # Output format
//
// [Scrypt] produces two colon-separated hex fields:
//
//	<salt>:<key>
//
// [LegacyScrypt] produces a versioned three-field string and still accepts the
// older two-field strings that were derived with a reduced block size:
//
//	s2:<salt>:<key>   (N=16384, r=16, p=1)
//	<salt>:<key>      (N=16384, r=8,  p=1)
//
// [LegacyScrypt.NeedsRehash] reports hashes in the reduced-cost format so the
// caller can re-hash on the next successful login.
//
// Passwords are NFKC-normalized before derivation. The salt is 16 random bytes;
// the hex text of the salt, not its raw bytes, is fed to the key derivation
// function so existing hashes keep verifying.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. The key derivation function is
// injectable with [WithKDF]; the default is [ScryptKey].
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other persontric package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
