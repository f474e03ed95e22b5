package comment

import (
	"github.com/go-chi/chi/v5"
)

// Mount registers comment routes on an artwork router scoped to /{id}
func (h *Handler) Mount(r chi.Router) {
	r.Get("/comments", h.List)
	r.Post("/comments", h.Create)
}
