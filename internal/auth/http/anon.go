package http

import (
	"net/http"

	"github.com/crestfall-io/auth/pkg/httpx"
)

// AnonTokenHandler serves the non-expiring anonymous token that clients
// bootstrap with. The token is minted once at startup; plain text keeps the
// endpoint trivially consumable.
type AnonTokenHandler struct {
	Token string
}

func (h *AnonTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.Token))
}
