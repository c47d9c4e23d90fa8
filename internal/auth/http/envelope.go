package http

import (
	"errors"
	"net/http"

	"github.com/crestfall-io/auth/internal/auth/service"
	"github.com/crestfall-io/auth/pkg/hs256"
	"github.com/crestfall-io/auth/pkg/httpx"
)

// Every response is wrapped in the same envelope: exactly one of data and
// error is set.
type envelope struct {
	Data  any            `json:"data"`
	Error *envelopeError `json:"error"`
}

type envelopeError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, code int, data any) {
	httpx.WriteJSON(w, code, envelope{Data: data})
}

func writeError(w http.ResponseWriter, code int, name, message string) {
	httpx.WriteJSON(w, code, envelope{Error: &envelopeError{Name: name, Message: message}})
}

// writeServiceError maps known failures to their envelope error names.
// Authentication and token failures respond 500, matching the behavior
// existing Crestfall clients key off.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusInternalServerError, "InvalidCredentials", "Invalid email or password.")
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		writeError(w, http.StatusInternalServerError, "EmailAlreadyUsed", "Email address already in use.")
	case errors.Is(err, service.ErrRefreshTokenInvalid):
		writeError(w, http.StatusInternalServerError, "InvalidRefreshToken", "Refresh token is unknown or already used.")
	case errors.Is(err, service.ErrTokenExpired):
		writeError(w, http.StatusInternalServerError, "TokenExpired", "Token is outside its validity window.")
	case errors.Is(err, hs256.ErrSignatureMismatch),
		errors.Is(err, hs256.ErrMalformedToken),
		errors.Is(err, hs256.ErrInvalidHeader):
		writeError(w, http.StatusInternalServerError, "InvalidToken", "Token failed verification.")
	default:
		writeError(w, http.StatusInternalServerError, "InternalError", "Internal server error.")
	}
}
