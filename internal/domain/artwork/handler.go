package artwork

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artgallery/gallery-api/internal/domain/upload"
	"github.com/artgallery/gallery-api/internal/pkg/errorhandler"
	"github.com/artgallery/gallery-api/internal/pkg/response"
)

// imageField is the multipart field carrying artwork images
const imageField = "image"

// maxImagesPerRequest bounds multipart create and update
const maxImagesPerRequest = 10

// Handler handles artwork HTTP requests
type Handler struct {
	service  *Service
	maxBytes int64
}

// NewHandler creates artwork handler. maxBytes is the per-file upload limit.
func NewHandler(service *Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = upload.DefaultMaxBytes
	}
	return &Handler{service: service, maxBytes: maxBytes}
}

// List handles GET /api/artworks
// @Summary List artworks, newest first
// @Tags Artwork
// @Produce json
// @Param genre query string false "Exact genre, or All"
// @Param q query string false "Search title or artist"
// @Param sort query string false "newest, oldest, title_asc, title_desc"
// @Success 200 {array} ArtworkResponse
// @Failure 400,500 {object} response.Response
// @Router /api/artworks [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sortOrder, ok := ParseSort(query.Get("sort"))
	if !ok {
		response.ValidationError(w, map[string]string{"sort": "Sort must be one of newest, oldest, title_asc, title_desc"})
		return
	}

	items, err := h.service.List(r.Context(), Query{
		Genre: query.Get("genre"),
		Term:  query.Get("q"),
		Sort:  sortOrder,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, ArtworkResponsesFromEntities(items))
}

// Suggest handles GET /api/artworks/suggest
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.service.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, ArtworkResponsesFromEntities(items))
}

// GetByID handles GET /api/artworks/{id}
// @Summary Get artwork by ID
// @Tags Artwork
// @Produce json
// @Param id path int true "Artwork ID"
// @Success 200 {object} ArtworkResponse
// @Failure 400,404,500 {object} response.Response
// @Router /api/artworks/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	a, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, ArtworkResponseFromEntity(a))
}

// Create handles POST /api/artworks
// @Summary Create artwork from JSON or multipart form
// @Tags Artwork
// @Accept json,mpfd
// @Produce json
// @Param request body CreateArtworkRequest false "JSON variant"
// @Param image formData file false "Inline image (multipart variant)"
// @Success 201 {object} ArtworkResponse
// @Failure 400,413,500 {object} response.Response
// @Router /api/artworks [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		h.createMultipart(w, r)
		return
	}

	var req CreateArtworkRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}

	a, err := h.service.Create(r.Context(), req.ToInput())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.Created(w, ArtworkResponseFromEntity(a))
}

func (h *Handler) createMultipart(w http.ResponseWriter, r *http.Request) {
	in, files, cleanup, err := h.parseMultipart(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	defer cleanup()

	a, err := h.service.CreateWithImages(r.Context(), in, files)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.Created(w, ArtworkResponseFromEntity(a))
}

// Rate handles PATCH /api/artworks/{id}
// @Summary Set artwork rating
// @Tags Artwork
// @Accept json
// @Produce json
// @Param id path int true "Artwork ID"
// @Param request body RateRequest true "Rating 1-5"
// @Success 200 {object} ArtworkResponse
// @Failure 400,404,500 {object} response.Response
// @Router /api/artworks/{id} [patch]
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req RateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	rating, err := ParseRating(req.Rating)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	a, err := h.service.Rate(r.Context(), id, rating)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, ArtworkResponseFromEntity(a))
}

// Update handles PUT /api/artworks/{id}
// @Summary Replace artwork fields, optionally with new images
// @Tags Artwork
// @Accept mpfd
// @Produce json
// @Param id path int true "Artwork ID"
// @Param image formData file false "Replacement image"
// @Success 200 {object} ArtworkResponse
// @Failure 400,404,413,500 {object} response.Response
// @Router /api/artworks/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var (
		in    Input
		files []io.Reader
	)
	if isMultipart(r) {
		var cleanup func()
		in, files, cleanup, err = h.parseMultipart(w, r)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		defer cleanup()
	} else {
		var req CreateArtworkRequest
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid JSON body: "+err.Error())
			return
		}
		in = req.ToInput()
	}

	a, err := h.service.Update(r.Context(), id, in, files)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, ArtworkResponseFromEntity(a))
}

// Delete handles DELETE /api/artworks/{id}
// @Summary Delete artwork and its images
// @Tags Artwork
// @Produce json
// @Param id path int true "Artwork ID"
// @Success 200 {object} response.Message
// @Failure 400,404,500 {object} response.Response
// @Router /api/artworks/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, response.Message{Message: "Artwork deleted successfully"})
}

// ParseID accepts only a positive decimal integer
func ParseID(raw string) (int64, error) {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart reads form fields and opens every image file. cleanup
// closes the files and removes multipart temp files.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (Input, []io.Reader, func(), error) {
	limit := h.maxBytes*maxImagesPerRequest + (1 << 20)
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(h.maxBytes + (1 << 20)); err != nil {
		return Input{}, nil, nil, upload.ParseFormError(err)
	}

	in, errs := formInput(r.MultipartForm.Value)
	if errs != nil {
		r.MultipartForm.RemoveAll()
		return Input{}, nil, nil, errs
	}

	headers := r.MultipartForm.File[imageField]
	if len(headers) > maxImagesPerRequest {
		r.MultipartForm.RemoveAll()
		return Input{}, nil, nil, ValidationErrors{imageField: "Too many images (max: " + strconv.Itoa(maxImagesPerRequest) + ")"}
	}

	opened := make([]multipart.File, 0, len(headers))
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
		r.MultipartForm.RemoveAll()
	}

	files := make([]io.Reader, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return Input{}, nil, nil, err
		}
		opened = append(opened, f)
		files = append(files, f)
	}

	return in, files, cleanup, nil
}

// formInput maps multipart values onto Input. Numbers and flags arrive as text.
func formInput(values url.Values) (Input, ValidationErrors) {
	get := func(key string) string {
		return strings.TrimSpace(firstValue(values, key))
	}

	in := Input{
		Title:       get("title"),
		Artist:      get("artist"),
		Genre:       Genre(get("genre")),
		Description: get("description"),
	}
	errs := ValidationErrors{}

	if v := get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			errs["year"] = "Year must be a number"
		} else {
			in.Year = &year
		}
	}
	if v := get("rating"); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil {
			errs["rating"] = "Rating must be a whole number"
		} else {
			in.Rating = rating
		}
	}
	for _, key := range []string{"is_popular", "is_public"} {
		v := get(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs[key] = "Must be true or false"
			continue
		}
		if key == "is_popular" {
			in.IsPopular = &b
		} else {
			in.IsPublic = &b
		}
	}
	if raw, ok := values["image_url"]; ok {
		for _, v := range raw {
			var urls ImageURLs
			if err := json.Unmarshal([]byte(v), &urls); err != nil {
				// Plain path rather than JSON
				urls = compact([]string{v})
			}
			if urls != nil && in.ImageURLs == nil {
				in.ImageURLs = ImageURLs{}
			}
			in.ImageURLs = append(in.ImageURLs, urls...)
		}
	}

	if len(errs) > 0 {
		return Input{}, errs
	}
	return in, nil
}

func firstValue(values url.Values, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// respondError maps domain and upload errors onto HTTP responses
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		errorhandler.LogValidationError(r.Context(), verrs)
		response.ValidationError(w, verrs)
	case errors.Is(err, ErrInvalidID):
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Artwork ID must be a positive integer")
	case errors.Is(err, ErrInvalidRating):
		response.Error(w, http.StatusBadRequest, "INVALID_RATING", "Rating must be an integer between 1 and 5")
	case errors.Is(err, ErrArtworkNotFound):
		response.NotFound(w, "Artwork not found")
	default:
		upload.RespondError(w, r, err)
	}
}
