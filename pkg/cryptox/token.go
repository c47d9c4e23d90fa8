package cryptox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Opaque token size constants (raw bytes before hex encoding).
const (
	// RefreshTokenSize provides 256 bits of entropy (64 hex chars) for
	// single-use refresh identifiers.
	RefreshTokenSize = 32
	// VerificationCodeSize provides 512 bits of entropy (128 hex chars)
	// for email verification codes.
	VerificationCodeSize = 64
)

// GenerateToken creates a cryptographically secure random token of the
// given byte length, hex-encoded.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// MustGenerateToken is like GenerateToken but panics on error. Use only
// during initialization where failure is unrecoverable.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(fmt.Sprintf("cryptox: failed to generate token: %v", err))
	}
	return token
}
