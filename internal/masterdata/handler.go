package masterdata

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warepulse/warepulse/internal/platform/httpx"
)

// Store lists dimension rows for filter dropdowns.
type Store interface {
	ListClients(ctx context.Context) ([]Client, error)
	ListProviders(ctx context.Context) ([]Provider, error)
}

// Handler serves the master data lookups used by dashboard filters.
type Handler struct {
	logger *slog.Logger
	store  Store
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountClientRoutes registers the client listing.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.Get("/", h.listClients)
}

// MountProviderRoutes registers the provider listing.
func (h *Handler) MountProviderRoutes(r chi.Router) {
	r.Get("/", h.listProviders)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		h.logger.Error("list clients failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.store.ListProviders(r.Context())
	if err != nil {
		h.logger.Error("list providers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, providers)
}
