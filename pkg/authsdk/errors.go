package authsdk

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadySignedIn is returned by SignUp/SignIn when the session
	// already holds a token.
	ErrAlreadySignedIn = errors.New("authsdk: already signed in")

	// ErrAlreadySignedOut is returned by SignOut on an anonymous session.
	ErrAlreadySignedOut = errors.New("authsdk: already signed out")
)

// APIError is an error envelope returned by the service.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authsdk: %s (%d): %s", e.Name, e.StatusCode, e.Message)
}
