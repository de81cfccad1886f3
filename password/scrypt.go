package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"
)

const (
	saltLength    = 16
	legacyVersion = "s2"
)

// Hasher hashes plaintext passwords and verifies them against stored hashes.
//
// Verify returns false with a nil error for malformed hashes. Errors are reserved for
// failures of the key derivation function or the random source.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// Params carries the scrypt cost parameters for one derivation.
type Params struct {
	N         int
	R         int
	P         int
	KeyLength int
}

var (
	// DefaultParams are used for every newly produced hash.
	DefaultParams = Params{N: 16384, R: 16, P: 1, KeyLength: 64}

	// ReducedParams match hashes written in the two-field format before the
	// versioned format existed.
	ReducedParams = Params{N: 16384, R: 8, P: 1, KeyLength: 64}
)

// KeyDerivationFunc derives a key of p.KeyLength bytes from password and salt.
type KeyDerivationFunc func(password, salt []byte, p Params) ([]byte, error)

// ScryptKey is the default KeyDerivationFunc backed by golang.org/x/crypto/scrypt.
func ScryptKey(password, salt []byte, p Params) ([]byte, error) {
	return scrypt.Key(password, salt, p.N, p.R, p.P, p.KeyLength)
}

// Option customizes a hasher at construction time.
type Option func(*options)

type options struct {
	kdf  KeyDerivationFunc
	rand io.Reader
}

// WithKDF replaces the key derivation function. Nil is ignored.
func WithKDF(kdf KeyDerivationFunc) Option {
	return func(o *options) {
		if kdf != nil {
			o.kdf = kdf
		}
	}
}

// WithRandom replaces the salt source. Nil is ignored.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.rand = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{kdf: ScryptKey, rand: rand.Reader}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Scrypt is the current hasher. Output is "<salt>:<key>".
//
// Scrypt is immutable after construction and safe for concurrent use.
type Scrypt struct {
	opts options
}

// NewScrypt returns a Scrypt hasher with DefaultParams.
func NewScrypt(opts ...Option) *Scrypt {
	return &Scrypt{opts: buildOptions(opts)}
}

// Hash derives a key for password under a fresh random salt.
func (s *Scrypt) Hash(password string) (string, error) {
	salt, key, err := derive(s.opts, password, DefaultParams)
	if err != nil {
		return "", err
	}
	return salt + ":" + key, nil
}

// Verify reports whether password matches hash. Hashes that do not have exactly
// two hex fields verify as false.
func (s *Scrypt) Verify(password, hash string) (bool, error) {
	parts := strings.Split(hash, ":")
	if len(parts) != 2 {
		return false, nil
	}
	return compare(s.opts, password, parts[0], parts[1], DefaultParams)
}

// LegacyScrypt writes versioned "s2:<salt>:<key>" hashes and additionally accepts
// the reduced-cost two-field format.
type LegacyScrypt struct {
	opts options
}

// NewLegacyScrypt returns a LegacyScrypt hasher.
func NewLegacyScrypt(opts ...Option) *LegacyScrypt {
	return &LegacyScrypt{opts: buildOptions(opts)}
}

// Hash derives a key with DefaultParams and prefixes the format version.
func (l *LegacyScrypt) Hash(password string) (string, error) {
	salt, key, err := derive(l.opts, password, DefaultParams)
	if err != nil {
		return "", err
	}
	return legacyVersion + ":" + salt + ":" + key, nil
}

// Verify accepts "<salt>:<key>" (reduced block size) and "s2:<salt>:<key>".
// Any other shape verifies as false.
func (l *LegacyScrypt) Verify(password, hash string) (bool, error) {
	parts := strings.Split(hash, ":")
	switch {
	case len(parts) == 2:
		return compare(l.opts, password, parts[0], parts[1], ReducedParams)
	case len(parts) == 3 && parts[0] == legacyVersion:
		return compare(l.opts, password, parts[1], parts[2], DefaultParams)
	default:
		return false, nil
	}
}

// NeedsRehash reports whether hash was written in the reduced-cost two-field
// format. Callers typically re-hash with Hash after a successful Verify.
func (l *LegacyScrypt) NeedsRehash(hash string) bool {
	return len(strings.Split(hash, ":")) == 2
}

func derive(o options, password string, p Params) (string, string, error) {
	raw := make([]byte, saltLength)
	if _, err := io.ReadFull(o.rand, raw); err != nil {
		return "", "", err
	}
	salt := hex.EncodeToString(raw)

	key, err := o.kdf(normalize(password), []byte(salt), p)
	if err != nil {
		return "", "", err
	}
	return salt, hex.EncodeToString(key), nil
}

func compare(o options, password, salt, encodedKey string, p Params) (bool, error) {
	expected, err := hex.DecodeString(encodedKey)
	if err != nil || len(expected) == 0 {
		return false, nil
	}

	key, err := o.kdf(normalize(password), []byte(salt), p)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func normalize(password string) []byte {
	return []byte(norm.NFKC.String(password))
}
