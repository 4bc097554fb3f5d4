package backup

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("sqlite snapshot bytes")

	encrypted, err := Encrypt(plaintext, "passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	decrypted, err := Decrypt(encrypted, "passphrase")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round trip = %q, want %q", decrypted, plaintext)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := Decrypt(encrypted, "wrong"); err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestDecryptTruncated(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "p"); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestEncryptSaltVaries(t *testing.T) {
	a, err := Encrypt([]byte("same input"), "p")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := Encrypt([]byte("same input"), "p")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("expected distinct ciphertexts for same input")
	}
}
