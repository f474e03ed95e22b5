package artwork

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns artwork router, mounted at /api/artworks.
// extra lets sibling domains hang sub-resources under /{id}.
func (h *Handler) Routes(extra ...func(r chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/suggest", h.Suggest)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.Patch("/", h.Rate)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)

		for _, mount := range extra {
			mount(r)
		}
	})

	return r
}
