package advpayments

import "github.com/go-chi/chi/v5"

// MountRoutes registers advance payment routes under /advanced-payment. The
// receipt PDF route is wired by the HTTP router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/create", h.Create)
	r.Post("/allocate", h.Allocate)
	r.Get("/balance/{clientId}", h.Balance)
	r.Get("/analytics/{clientId}", h.Analytics)
	r.Get("/client/{clientId}", h.ListForClient)
}
