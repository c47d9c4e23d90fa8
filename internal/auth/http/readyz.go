package http

import (
	"net/http"
	"time"

	"github.com/crestfall-io/auth/internal/auth/store"
	"github.com/crestfall-io/auth/pkg/authsdk"
	"github.com/crestfall-io/auth/pkg/httpx"
	"github.com/crestfall-io/auth/pkg/slogx"
)

// ReadyzHandler is the readiness probe. Unlike livez it checks the record
// store, so a wedged database takes the instance out of rotation.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Error("readiness check failed", "error", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, authsdk.HealthResponse{
				Status:  "unavailable",
				Uptime:  time.Since(startTime).String(),
				Version: version,
			})
			return
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
