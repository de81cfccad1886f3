package internal

import (
	"strings"
	"testing"
)

func TestNewSessionIDLengthAndAlphabet(t *testing.T) {
	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID error: %v", err)
	}
	if len(id) != SessionIDLength {
		t.Fatalf("expected %d chars, got %d (%q)", SessionIDLength, len(id), id)
	}
	for _, r := range id {
		if !strings.ContainsRune(sessionIDAlphabet, r) {
			t.Fatalf("unexpected character %q in %q", r, id)
		}
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewSessionID()
		if err != nil {
			t.Fatalf("NewSessionID error: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id %q after %d draws", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestRandomStringRejectsBadInput(t *testing.T) {
	if _, err := RandomString(0, "ab"); err == nil {
		t.Fatal("expected zero length to fail")
	}
	if _, err := RandomString(8, ""); err == nil {
		t.Fatal("expected empty alphabet to fail")
	}
}

func TestRandomStringSingleSymbolAlphabet(t *testing.T) {
	s, err := RandomString(12, "x")
	if err != nil {
		t.Fatalf("RandomString error: %v", err)
	}
	if s != strings.Repeat("x", 12) {
		t.Fatalf("unexpected output %q", s)
	}
}
