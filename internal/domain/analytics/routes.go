package analytics

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns analytics router, mounted at /api/analytics
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/genre-popularity", h.GenrePopularity)
	r.Get("/year-wise", h.YearWise)
	r.Get("/age-genre", h.AgeGenre)

	return r
}
