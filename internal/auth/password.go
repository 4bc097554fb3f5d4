package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters sized so a single derivation costs ~100ms on commodity
// hardware. Cost of 2^17 per OWASP recommendation.
const (
	saltSize   = 16
	digestSize = 64
	scryptN    = 1 << 17
	scryptR    = 8
	scryptP    = 1
)

// HashPassword derives a salted hash of the given password. The returned
// blob is salt || digest and is the only form ever persisted.
func HashPassword(password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	digest, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, digestSize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	blob := make([]byte, 0, saltSize+digestSize)
	blob = append(blob, salt...)
	blob = append(blob, digest...)
	return blob, nil
}

// VerifyPassword recomputes the digest with the stored salt and compares in
// constant time. A malformed stored blob is an error, not a mismatch.
func VerifyPassword(password string, stored []byte) (bool, error) {
	if len(stored) != saltSize+digestSize {
		return false, fmt.Errorf("stored hash is %d bytes, want %d", len(stored), saltSize+digestSize)
	}

	salt := stored[:saltSize]
	digest, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, digestSize)
	if err != nil {
		return false, fmt.Errorf("derive key: %w", err)
	}

	return subtle.ConstantTimeCompare(stored[saltSize:], digest) == 1, nil
}
