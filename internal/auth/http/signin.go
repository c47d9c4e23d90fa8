package http

import (
	"net/http"

	"github.com/crestfall-io/auth/internal/auth/service"
)

// SignInHandler authenticates an existing user. Callers must present an
// anonymous bearer token.
type SignInHandler struct {
	Authority *service.Authority
}

func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireAnonBearer(h.Authority, w, r) {
		return
	}
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.Authority.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, sessionResponse{User: user.Sanitized(), Token: token})
}
