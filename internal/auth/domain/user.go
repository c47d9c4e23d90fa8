package domain

import "time"

type User struct {
	ID               string
	Email            string // normalized (NFKC, case-folded)
	VerificationCode *string
	VerifiedAt       *time.Time
	PasswordSalt     string // hex
	PasswordKey      string // hex, scrypt-derived
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Verified reports whether the user's email has been confirmed.
func (u User) Verified() bool {
	return u.VerifiedAt != nil
}

// PublicUser is the wire-safe projection of a User. It never carries
// credential material or the verification code.
type PublicUser struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Verified   bool       `json:"verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Scopes     []string   `json:"scopes,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// Sanitized strips credential material for responses.
func (u User) Sanitized() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Verified:   u.Verified(),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		VerifiedAt: u.VerifiedAt,
	}
}
