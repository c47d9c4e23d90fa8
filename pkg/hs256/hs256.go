// Package hs256 implements the Crestfall signed-token codec: a three-part
// HS256 token (header.payload.signature, each segment base64url without
// padding). Signature verification is deliberately separated from temporal
// validity — Verify never inspects exp/nbf, so the server and the client SDK
// can apply their own expiry policies against their own clocks.
package hs256

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Alg is the only supported algorithm identifier.
	Alg = "HS256"
	// Typ is the only supported token type tag.
	Typ = "JWT"
)

var (
	// ErrMalformedToken reports a token that is not three non-empty
	// base64url segments of JSON objects.
	ErrMalformedToken = errors.New("hs256: malformed token")

	// ErrInvalidHeader reports a header whose alg/typ pair is not the single
	// supported combination.
	ErrInvalidHeader = errors.New("hs256: invalid header")

	// ErrSignatureMismatch reports a signature that does not match the
	// recomputed MAC.
	ErrSignatureMismatch = errors.New("hs256: signature mismatch")
)

// Header is the fixed token header.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// NewHeader returns the single supported header value.
func NewHeader() Header {
	return Header{Alg: Alg, Typ: Typ}
}

// Payload carries the token claims. JSON field names match the Crestfall
// wire format. Nullable claims use pointers so "absent" and "null" both
// round-trip; exp == nil means the token never expires.
type Payload struct {
	IssuedAt     int64    `json:"iat"`
	NotBefore    int64    `json:"nbf"`
	ExpiresAt    *int64   `json:"exp"`
	Issuer       string   `json:"iss"`
	Audience     string   `json:"aud"`
	Subject      *string  `json:"sub"`
	Role         string   `json:"role"`
	Email        *string  `json:"email"`
	Scopes       []string `json:"scopes"`
	RefreshToken *string  `json:"refresh_token"`
}

// Expired reports whether the payload carries an exp claim that now has
// passed. Tokens without exp never expire.
func (p Payload) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.Unix() >= *p.ExpiresAt
}

// WithinValidityWindow reports whether now is inside [nbf, exp). Tokens
// without exp are valid from nbf onward.
func (p Payload) WithinValidityWindow(now time.Time) bool {
	ts := now.Unix()
	if ts < p.NotBefore {
		return false
	}
	return p.ExpiresAt == nil || ts < *p.ExpiresAt
}

// signingMethod is golang-jwt's HS256 implementation. Its Verify uses
// hmac.Equal, which is constant-time.
var signingMethod = jwt.SigningMethodHS256

// decodeSecret converts the base64 (std) storage form of the shared secret
// into the raw HMAC key.
func decodeSecret(secretB64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return nil, fmt.Errorf("hs256: decode secret: %w", err)
	}
	return key, nil
}

// Encode serializes header and payload, signs them with the shared secret
// and returns the joined token string. The same serialization is used for
// the MAC input and the emitted segments, so verifiers never need to
// re-canonicalize.
func Encode(header Header, payload Payload, secretB64 string) (string, error) {
	if header.Alg != Alg || header.Typ != Typ {
		return "", ErrInvalidHeader
	}
	key, err := decodeSecret(secretB64)
	if err != nil {
		return "", err
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("hs256: marshal header: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hs256: marshal payload: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." + base64.RawURLEncoding.EncodeToString(payloadJSON)

	sig, err := signingMethod.Sign(signingInput, key)
	if err != nil {
		return "", fmt.Errorf("hs256: sign: %w", err)
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// DecodeUnverified splits and parses a token without checking its
// signature. Callers that hold the secret should use Verify; the client SDK
// uses this to read its own persisted token.
func DecodeUnverified(token string) (Header, Payload, error) {
	header, payload, _, _, err := split(token)
	return header, payload, err
}

// Verify decodes the token, recomputes the MAC over the transmitted header
// and payload segments and compares it to the transmitted signature. It
// does not evaluate exp/nbf; temporal validity is the caller's policy.
func Verify(token, secretB64 string) (Header, Payload, error) {
	header, payload, signingInput, sig, err := split(token)
	if err != nil {
		return Header{}, Payload{}, err
	}
	if header.Alg != Alg || header.Typ != Typ {
		return Header{}, Payload{}, ErrInvalidHeader
	}
	key, err := decodeSecret(secretB64)
	if err != nil {
		return Header{}, Payload{}, err
	}
	if err := signingMethod.Verify(signingInput, sig, key); err != nil {
		return Header{}, Payload{}, ErrSignatureMismatch
	}
	return header, payload, nil
}

// split breaks a token into its parsed header/payload, the exact signing
// input (first two transmitted segments) and the raw signature bytes.
func split(token string) (Header, Payload, string, []byte, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}
	for _, segment := range segments {
		if segment == "" {
			return Header{}, Payload{}, "", nil, ErrMalformedToken
		}
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(segments[2])
	if err != nil {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}

	// Both JSON segments must be key/value mappings, not bare values.
	var headerMap, payloadMap map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &headerMap); err != nil {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}
	if err := json.Unmarshal(payloadJSON, &payloadMap); err != nil {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}
	var payload Payload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return Header{}, Payload{}, "", nil, ErrMalformedToken
	}

	return header, payload, segments[0] + "." + segments[1], sig, nil
}
