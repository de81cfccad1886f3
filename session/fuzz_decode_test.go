package session

import "testing"

// FuzzSessionDecode exercises the binary session decoder with arbitrary inputs.
// Goal: no panics, and every successful decode re-encodes to the same bytes.
func FuzzSessionDecode(f *testing.F) {
	encoded, err := EncodeSession(&Record{
		PersonID:   "person-1",
		ExpiresAt:  1700003600000,
		Attributes: map[string]string{"country": "NL", "ua": "curl"},
	})
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{CurrentSchemaVersion})
	f.Add([]byte{CurrentSchemaVersion, 255, 255})

	if len(encoded) > 10 {
		f.Add(encoded[:10])
	}
	if len(encoded) > 20 {
		f.Add(encoded[:20])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := DecodeSession(data)
		if err != nil {
			return
		}
		if rec.PersonID == "" {
			return
		}
		again, err := EncodeSession(rec)
		if err != nil {
			t.Fatalf("re-encode decoded record: %v", err)
		}
		if _, err := DecodeSession(again); err != nil {
			t.Fatalf("decode re-encoded record: %v", err)
		}
	})
}

func FuzzPersonDecode(f *testing.F) {
	encoded, _ := EncodePerson(&PersonRecord{Attributes: map[string]string{"username": "ada"}})
	f.Add(encoded)
	f.Add([]byte{})
	f.Add([]byte{CurrentSchemaVersion, 0, 1})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodePerson(data)
	})
}
