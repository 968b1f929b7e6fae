package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/chairside/chairside/internal/appointments"
	"github.com/chairside/chairside/internal/auth"
	"github.com/chairside/chairside/internal/catalog"
	"github.com/chairside/chairside/internal/salons"
	"github.com/chairside/chairside/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthHandler         *auth.Handler
	AppointmentsHandler *appointments.Handler
	SalonsHandler       *salons.Handler
	CatalogHandler      *catalog.Handler
	JobsHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with chairside defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api/v1", func(r chi.Router) {
		params.AppointmentsHandler.MountRoutes(r)
		params.SalonsHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
