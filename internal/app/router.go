package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/warepulse/warepulse/internal/alerts"
	"github.com/warepulse/warepulse/internal/auth"
	kpihttp "github.com/warepulse/warepulse/internal/kpi/http"
	"github.com/warepulse/warepulse/internal/masterdata"
	"github.com/warepulse/warepulse/internal/observability"
	"github.com/warepulse/warepulse/internal/shared"
	"github.com/warepulse/warepulse/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Verifier          auth.Verifier
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	MasterDataHandler *masterdata.Handler
	KPIHandler        *kpihttp.Handler
	AlertsHandler     *alerts.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
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
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticator(params.Verifier))
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticator(params.Verifier))

			r.Route("/kpis", params.KPIHandler.MountRoutes)
			r.Route("/reports", params.KPIHandler.MountReportRoutes)
			r.Route("/alerts", func(r chi.Router) {
				params.AlertsHandler.MountRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(shared.RoleAdmin))
					params.AlertsHandler.MountAdminRoutes(r)
				})
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(shared.RoleAdmin))

				r.Route("/clients", params.MasterDataHandler.MountClientRoutes)
				r.Route("/providers", params.MasterDataHandler.MountProviderRoutes)
				r.Route("/users", params.UsersHandler.MountRoutes)
			})
		})
	})

	return r
}
