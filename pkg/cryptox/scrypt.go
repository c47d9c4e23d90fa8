// Package cryptox provides the password key-derivation engine and opaque
// token generation for the auth service.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters. N is the CPU/memory work factor, r the block
// size, p the parallelism. A single derivation lands in the tens of
// milliseconds on current hardware, which is the point.
// See https://words.filippo.io/the-scrypt-parameters/.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1

	// SaltLength is the raw salt size in bytes (64 hex characters).
	SaltLength = 32
	// KeyLength is the derived key size in bytes (128 hex characters).
	KeyLength = 64
)

var (
	// ErrInvalidSalt reports a salt that is not valid hex of exactly
	// SaltLength bytes. Length mismatches fail fast rather than silently
	// truncating.
	ErrInvalidSalt = errors.New("cryptox: invalid salt")

	// ErrDerivationFailed reports a key-derivation failure (e.g. resource
	// exhaustion). Distinct from a plain mismatch, which is not an error.
	ErrDerivationFailed = errors.New("cryptox: key derivation failed")
)

// GenerateSalt returns a fresh random salt, hex-encoded.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DeriveKey derives the password key for the given hex-encoded salt and
// returns it hex-encoded. The password must already be NFKC-normalized by
// the caller; the engine treats it as opaque bytes. Empty passwords are
// permitted here — rejecting them is caller policy.
func DeriveKey(password, saltHex string) (string, error) {
	salt, err := decodeSalt(saltHex)
	if err != nil {
		return "", err
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, KeyLength)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return hex.EncodeToString(key), nil
}

// VerifyKey re-derives the key for (password, salt) and compares it to the
// expected hex-encoded key in constant time. A mismatch returns
// (false, nil); only salt or derivation problems produce errors.
func VerifyKey(password, saltHex, expectedKeyHex string) (bool, error) {
	derivedHex, err := DeriveKey(password, saltHex)
	if err != nil {
		return false, err
	}
	derived, err := hex.DecodeString(derivedHex)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	expected, err := hex.DecodeString(expectedKeyHex)
	if err != nil {
		return false, nil
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1, nil
}

func decodeSalt(saltHex string) ([]byte, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, ErrInvalidSalt
	}
	if len(salt) != SaltLength {
		return nil, ErrInvalidSalt
	}
	return salt, nil
}
