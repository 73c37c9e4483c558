package kpihttp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/warepulse/warepulse/internal/shared"
)

// MountRoutes registers the KPI dashboard endpoints onto the router. Export
// endpoints are rate limited per caller since report generation is the most
// expensive read in the service.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/overview", h.handleOverview)
	r.Get("/{code}/detail", h.handleDetail)
	r.Group(func(gr chi.Router) {
		gr.Use(h.exportLimiter())
		gr.Get("/{code}/export", h.handleExport)
	})
}

// MountReportRoutes registers the combined report export.
func (h *Handler) MountReportRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(gr chi.Router) {
		gr.Use(h.exportLimiter())
		gr.Get("/export", h.handleReportExport)
	})
}

func (h *Handler) exportLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		return fmt.Sprintf("user:%d", identity.UserID), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
