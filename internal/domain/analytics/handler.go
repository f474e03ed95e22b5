package analytics

import (
	"net/http"

	"github.com/artgallery/gallery-api/internal/pkg/errorhandler"
	"github.com/artgallery/gallery-api/internal/pkg/response"
)

// YearSourceHeader names the field the year-wise rows were grouped by
const YearSourceHeader = "X-Year-Source"

const shapeChart = "chart"

// Handler handles analytics HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates analytics handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GenrePopularity handles GET /api/analytics/genre-popularity
// @Summary Artwork count per genre
// @Tags Analytics
// @Produce json
// @Success 200 {array} GenreCount
// @Failure 500 {object} response.Response
// @Router /api/analytics/genre-popularity [get]
func (h *Handler) GenrePopularity(w http.ResponseWriter, r *http.Request) {
	if _, ok := parseShape(w, r); !ok {
		return
	}

	rows, err := h.service.GenrePopularity(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, err)
		return
	}

	// Already one row per category
	response.OK(w, rows)
}

// YearWise handles GET /api/analytics/year-wise
// @Summary Artwork count per year and genre
// @Tags Analytics
// @Produce json
// @Param shape query string false "chart for one row per year"
// @Success 200 {array} YearGenreCount
// @Failure 400,500 {object} response.Response
// @Router /api/analytics/year-wise [get]
func (h *Handler) YearWise(w http.ResponseWriter, r *http.Request) {
	chart, ok := parseShape(w, r)
	if !ok {
		return
	}

	rows, err := h.service.YearWise(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, err)
		return
	}

	w.Header().Set(YearSourceHeader, string(h.service.YearSource()))
	if chart {
		response.OK(w, PivotYearWise(rows))
		return
	}
	response.OK(w, rows)
}

// AgeGenre handles GET /api/analytics/age-genre
// @Summary Comment count per commenter age and artwork genre
// @Tags Analytics
// @Produce json
// @Param shape query string false "chart for one row per age"
// @Success 200 {array} AgeGenreCount
// @Failure 400,500 {object} response.Response
// @Router /api/analytics/age-genre [get]
func (h *Handler) AgeGenre(w http.ResponseWriter, r *http.Request) {
	chart, ok := parseShape(w, r)
	if !ok {
		return
	}

	rows, err := h.service.AgeGenre(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, err)
		return
	}

	if chart {
		response.OK(w, PivotAgeGenre(rows))
		return
	}
	response.OK(w, rows)
}

func parseShape(w http.ResponseWriter, r *http.Request) (chart bool, ok bool) {
	switch r.URL.Query().Get("shape") {
	case "", "flat":
		return false, true
	case shapeChart:
		return true, true
	default:
		response.ValidationError(w, map[string]string{"shape": "Shape must be flat or chart"})
		return false, false
	}
}
