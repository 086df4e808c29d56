package clients

import "github.com/go-chi/chi/v5"

// MountRoutes registers client routes under /client.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/all", h.List)
	r.Get("/check", h.Check)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}
