package transactions

import "github.com/go-chi/chi/v5"

// MountRoutes registers transaction routes under /transaction. The receipt
// PDF route is wired by the HTTP router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/pay", h.Pay)
	r.Get("/all", h.List)
	r.Get("/{id}", h.Get)
}
