package http

import (
	"net/http"

	"github.com/crestfall-io/auth/internal/auth/service"
)

type refreshResponse struct {
	Token string `json:"token"`
}

// RefreshHandler rotates the presented bearer into a fresh token.
type RefreshHandler struct {
	Authority *service.Authority
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "InvalidToken", "Missing bearer token.")
		return
	}

	next, err := h.Authority.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, refreshResponse{Token: next})
}
