package suborders

import "github.com/go-chi/chi/v5"

// MountRoutes registers sub-order routes under /sub-order. The invoice PDF
// route is wired by the HTTP router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/all", h.List)
	r.Patch("/bulk/status", h.BulkUpdateStatus)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/advance", h.Advance)
}
