package internal

import (
	"crypto/rand"
	"errors"
	"io"
)

const (
	// SessionIDLength is the number of characters in a generated session id.
	SessionIDLength = 40

	sessionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewSessionID returns a SessionIDLength-character id drawn from [0-9a-z].
func NewSessionID() (string, error) {
	return RandomString(SessionIDLength, sessionIDAlphabet)
}

// RandomString draws length characters uniformly from alphabet using crypto/rand.
// Bytes that would bias the distribution are rejected and redrawn.
func RandomString(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid random string length")
	}
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", errors.New("invalid random string alphabet")
	}

	limit := 256 - (256 % len(alphabet))
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2)

	for len(out) < length {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
