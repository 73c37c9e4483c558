package alerts

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warepulse/warepulse/internal/platform/httpx"
	"github.com/warepulse/warepulse/internal/shared"
)

// Handler serves the alert feed and the admin alert configuration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the alert feed for any authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listAlerts)
}

// MountAdminRoutes registers configuration and resolution, admin only.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/config", h.listConfig)
	r.Put("/config", h.updateConfig)
	r.Post("/{id}/resolve", h.resolveAlert)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	alerts, err := h.service.List(r.Context(), identity)
	if err != nil {
		h.logger.Error("list alerts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	httpx.JSON(w, http.StatusOK, alerts)
}

func (h *Handler) listConfig(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.Targets(r.Context())
	if err != nil {
		h.logger.Error("list alert config failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if configs == nil {
		configs = []TargetConfig{}
	}
	httpx.JSON(w, http.StatusOK, configs)
}

// updateConfig accepts a map of KPI code to threshold bounds, e.g.
// {"OTD": {"warning": 90, "critical": 81}}, and upserts each entry.
func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var req map[string]Threshold
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if len(req) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no thresholds supplied")
		return
	}
	for code, th := range req {
		if err := h.validator.Struct(th); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
				fmt.Sprintf("%s: %s", code, err.Error()))
			return
		}
	}

	applied := h.service.ConfigureThresholds(r.Context(), req)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "alert thresholds updated",
		"applied": applied,
	})
}

func (h *Handler) resolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Resolve(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("resolve alert failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "alert resolved"})
}
