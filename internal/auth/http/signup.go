package http

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/crestfall-io/auth/internal/auth/domain"
	"github.com/crestfall-io/auth/internal/auth/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// decodeCredentials parses a JSON credentials body, enforcing content type
// and non-empty fields. It writes the error response on failure.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	ct := r.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "UnsupportedMediaType", "Content-Type must be application/json.")
		return credentialsRequest{}, false
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "Request body is not valid JSON.")
		return credentialsRequest{}, false
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "BadRequest", "Both email and password are required.")
		return credentialsRequest{}, false
	}
	return req, true
}

type sessionResponse struct {
	User  domain.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// SignUpHandler registers a new user. Callers must present an anonymous
// bearer token.
type SignUpHandler struct {
	Authority *service.Authority
}

func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireAnonBearer(h.Authority, w, r) {
		return
	}
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.Authority.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, sessionResponse{User: user.Sanitized(), Token: token})
}
