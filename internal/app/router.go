package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/authline/authline/internal/auth"
	"github.com/authline/authline/internal/observability"
	"github.com/authline/authline/internal/platform/httpx"
	"github.com/authline/authline/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Store          ReadinessReporter
	Tokens         TokenVerifier
	AuthHandler    *auth.Handler
	ProfileHandler *users.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with authline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		if params.Store == nil || !params.Store.Ready() {
			status = http.StatusServiceUnavailable
		}
		httpx.JSON(w, status, map[string]any{"ready": status == http.StatusOK})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Registration and login touch the store directly; both sit behind
	// the readiness gate.
	r.Group(func(r chi.Router) {
		r.Use(RequireReady(params.Store))
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Use(RequireToken(params.Tokens))
		params.ProfileHandler.MountRoutes(r)
	})

	return r
}
