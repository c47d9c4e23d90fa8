package authsdk

import (
	"encoding/json"
	"time"
)

// envelope mirrors the server's response wrapper: exactly one of data and
// error is set.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// User is the sanitized user record returned by sign-up and sign-in.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Verified   bool       `json:"verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// SignInResult carries the outcome of a sign-up or sign-in call.
type SignInResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// HealthResponse is the body of the livez/readyz endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
