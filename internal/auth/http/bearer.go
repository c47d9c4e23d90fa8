package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/crestfall-io/auth/internal/auth/domain"
	"github.com/crestfall-io/auth/internal/auth/service"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	return token, token != ""
}

// requireAnonBearer enforces the sign-up/sign-in gate: the caller must
// present a valid anonymous token with no subject. It writes the error
// response itself and reports whether the request may proceed.
func requireAnonBearer(a *service.Authority, w http.ResponseWriter, r *http.Request) bool {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "InvalidToken", "Missing bearer token.")
		return false
	}

	payload, err := a.VerifyBearer(token, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return false
	}
	if payload.Role != domain.RoleAnon || payload.Subject != nil {
		writeError(w, http.StatusInternalServerError, "InvalidToken", "Anonymous token required.")
		return false
	}
	return true
}
