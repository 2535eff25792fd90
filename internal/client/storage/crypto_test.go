package storage

import (
	"errors"
	"testing"
)

func TestNewAEADFromSecret(t *testing.T) {
	aead1, err := NewAEADFromSecret([]byte("correct horse"))
	if err != nil {
		t.Fatalf("derive AEAD failed: %v", err)
	}
	aead2, err := NewAEADFromSecret([]byte("correct horse"))
	if err != nil {
		t.Fatalf("derive AEAD second time: %v", err)
	}

	// same secret => same key, so a token sealed by one opens with the other
	sealed, err := seal(aead1, "tok-123")
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	plain, err := open(aead2, sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if plain != "tok-123" {
		t.Errorf("unexpected plaintext: got %q, want %q", plain, "tok-123")
	}
}

func TestOpen_WrongSecret(t *testing.T) {
	aead1, _ := NewAEADFromSecret([]byte("one"))
	aead2, _ := NewAEADFromSecret([]byte("two"))

	sealed, err := seal(aead1, "tok")
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := open(aead2, sealed); !errors.Is(err, ErrSealedToken) {
		t.Errorf("expected ErrSealedToken, got %v", err)
	}
	if _, err := open(aead1, "not base64!"); !errors.Is(err, ErrSealedToken) {
		t.Errorf("expected ErrSealedToken for garbage, got %v", err)
	}
}

func TestNewAEADFromSecret_Empty(t *testing.T) {
	if _, err := NewAEADFromSecret(nil); err == nil {
		t.Error("expected error for empty secret")
	}
}
