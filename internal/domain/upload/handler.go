package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artgallery/gallery-api/internal/pkg/errorhandler"
	"github.com/artgallery/gallery-api/internal/pkg/logger"
	"github.com/artgallery/gallery-api/internal/pkg/response"
)

// multipartOverhead covers form boundaries and text fields around the file
const multipartOverhead = 1 << 20

// Handler handles upload HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates upload handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload handles POST /api/upload
// @Summary Upload a single artwork image
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPEG, PNG or GIF, at most 5 MB"
// @Success 201 {object} UploadResponse
// @Failure 400,413,500 {object} response.Response
// @Router /api/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(h.service.MaxBytes() + multipartOverhead); err != nil {
		RespondError(w, r, ParseFormError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		RespondError(w, r, ErrNoFile)
		return
	}
	defer file.Close()

	img, err := h.service.Save(r.Context(), file)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	response.Created(w, UploadResponse{
		Success:      true,
		ImageURL:     img.URL,
		ThumbnailURL: img.ThumbnailURL,
	})
}

// Serve handles GET /uploads/{name}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.service.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			response.NotFound(w, "File not found")
			return
		}
		errorhandler.Internal(r.Context(), w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// Stored names are never reused
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("Failed to stream upload")
	}
}

// ParseFormError maps a multipart parsing failure to an upload error
func ParseFormError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrFileTooLarge
	}
	return fmt.Errorf("%w: %v", ErrBadForm, err)
}

// RespondError writes the response for an upload error. Unknown errors
// are logged and answered with 500.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoFile):
		response.Error(w, http.StatusBadRequest, "NO_FILE", "No file uploaded")
	case errors.Is(err, ErrFileTooLarge):
		response.TooLarge(w, "File exceeds the maximum allowed size")
	case errors.Is(err, ErrInvalidMime), errors.Is(err, ErrNotAnImage):
		response.Error(w, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only JPEG, PNG and GIF images are allowed")
	case errors.Is(err, ErrBadForm):
		response.BadRequest(w, "Expected a multipart/form-data body")
	default:
		errorhandler.Internal(r.Context(), w, err)
	}
}
