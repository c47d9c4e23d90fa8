package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crestfall-io/auth/internal/auth/service"
	"github.com/crestfall-io/auth/internal/auth/store"
	"github.com/crestfall-io/auth/pkg/httpx"
	"github.com/crestfall-io/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	authority *service.Authority
	anonToken string
}

func NewRouter(
	buildVersion string,
	st store.Store,
	authority *service.Authority,
	anonToken string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		authority:    authority,
		anonToken:    anonToken,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	// Credential-accepting endpoints get the strict per-IP limit to slow
	// brute force and enumeration.
	r.Mux.Handle("POST /sign-up",
		httpx.Chain(&SignUpHandler{Authority: r.authority},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /sign-in",
		httpx.Chain(&SignInHandler{Authority: r.authority},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Refresh fires at most every few minutes per healthy client.
	r.Mux.Handle("POST /refresh",
		httpx.Chain(&RefreshHandler{Authority: r.authority},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /tokens/anon",
		httpx.Chain(&AnonTokenHandler{Token: r.anonToken},
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
