package orders

import "github.com/go-chi/chi/v5"

// MountRoutes registers order routes under /order.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/all", h.List)
	r.Get("/all-with-transactions", h.ListWithTransactions)
	r.Get("/search", h.Search)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Patch("/{id}/close", h.Close)
	r.Delete("/{id}", h.Delete)
}
