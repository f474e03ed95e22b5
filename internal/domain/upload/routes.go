package upload

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the upload API router, mounted at /api/upload
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	return r
}

// FileRoutes serves stored images, mounted at /uploads
func (h *Handler) FileRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{name}", h.Serve)
	r.Head("/{name}", h.Serve)
	return r
}
