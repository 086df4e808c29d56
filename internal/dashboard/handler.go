package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load dashboard stats")
		return
	}
	httpx.OK(w, stats)
}

func (h *Handler) ClientDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.service.ClientDebts(r.Context())
	if err != nil {
		h.logger.Error("client debts failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load client debts")
		return
	}
	if debts == nil {
		debts = []finance.ClientDebt{}
	}
	httpx.OK(w, debts)
}

// MountRoutes registers dashboard routes under /dashboard. The debts view is
// served from /client/debts, which the router wires next to the client CRUD
// routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stats", h.Stats)
}
