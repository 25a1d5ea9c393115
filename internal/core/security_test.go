// AngelaMos | 2026
// security_test.go

package core

import (
	"errors"
	"strings"
	"testing"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()

	key, err := GenerateSealKey()
	if err != nil {
		t.Fatalf("GenerateSealKey: %v", err)
	}
	s, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s := newTestSealer(t)

	sealed, err := s.Seal("header.payload.signature")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(sealed, "payload") {
		t.Errorf("sealed value leaks plaintext: %q", sealed)
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened != "header.payload.signature" {
		t.Errorf("Open = %q, want original plaintext", opened)
	}
}

func TestSealer_NonceIsRandom(t *testing.T) {
	s := newTestSealer(t)

	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	if a == b {
		t.Error("expected two seals of the same value to differ")
	}
}

func TestSealer_RejectsTampering(t *testing.T) {
	s := newTestSealer(t)
	other := newTestSealer(t)

	sealed, err := s.Seal("token")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	tests := []struct {
		name  string
		input string
		open  *Sealer
	}{
		{"wrong key", sealed, other},
		{"not base64", "%%%", s},
		{"too short", "AAAA", s},
		{"flipped byte", flipMiddle(sealed), s},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.open.Open(tt.input)
			if !errors.Is(err, ErrSealCorrupted) {
				t.Errorf("Open error = %v, want ErrSealCorrupted", err)
			}
		})
	}
}

func TestParseSealKey(t *testing.T) {
	if _, err := ParseSealKey("c2hvcnQ="); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := ParseSealKey("not base64!"); err == nil {
		t.Error("expected error for invalid base64")
	}

	valid := "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="
	key, err := ParseSealKey(valid)
	if err != nil {
		t.Fatalf("ParseSealKey: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("client-1")
	if len(h) != 64 {
		t.Errorf("hash length = %d, want 64", len(h))
	}
	if h != HashToken("client-1") {
		t.Error("HashToken is not deterministic")
	}
	if h == HashToken("client-2") {
		t.Error("different client ids hashed to the same key")
	}
}

func flipMiddle(s string) string {
	b := []byte(s)
	mid := len(b) / 2
	if b[mid] == 'A' {
		b[mid] = 'B'
	} else {
		b[mid] = 'A'
	}
	return string(b)
}
