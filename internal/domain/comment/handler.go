package comment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/pkg/errorhandler"
	"github.com/artgallery/gallery-api/internal/pkg/response"
	"github.com/artgallery/gallery-api/internal/pkg/validator"
)

// Handler handles comment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates comment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/artworks/{id}/comments
// @Summary Add a comment to an artwork
// @Tags Comment
// @Accept json
// @Produce json
// @Param id path int true "Artwork ID"
// @Param request body CreateCommentRequest true "Commenter age"
// @Success 201 {object} CommentResponse
// @Failure 400,404,500 {object} response.Response
// @Router /api/artworks/{id}/comments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	artworkID, err := artwork.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Artwork ID must be a positive integer")
		return
	}

	var req CreateCommentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	c, err := h.service.Create(r.Context(), artworkID, req.Age)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.Created(w, CommentResponseFromEntity(c))
}

// List handles GET /api/artworks/{id}/comments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	artworkID, err := artwork.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Artwork ID must be a positive integer")
		return
	}

	comments, err := h.service.ListByArtwork(r.Context(), artworkID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items := make([]*CommentResponse, 0, len(comments))
	for _, c := range comments {
		items = append(items, CommentResponseFromEntity(c))
	}
	response.OK(w, items)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrArtworkNotFound):
		response.NotFound(w, "Artwork not found")
	case errors.Is(err, ErrInvalidAge):
		response.ValidationError(w, map[string]string{"age": "Value must be between 1 and 150"})
	default:
		errorhandler.Internal(r.Context(), w, err)
	}
}
