package artwork

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/artgallery/gallery-api/internal/domain/upload"
)

// Input is the field set accepted by create and full update.
// Nil flags keep the stored value on update and take the column default on create.
type Input struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Artist      string    `json:"artist" validate:"required,max=255"`
	Genre       Genre     `json:"genre" validate:"omitempty,genre"`
	Year        *int      `json:"year" validate:"omitempty,art_year"`
	Rating      int       `json:"rating" validate:"gte=0,lte=5"`
	Description string    `json:"description" validate:"max=5000"`
	ImageURLs   ImageURLs `json:"image_url" validate:"omitempty,dive,upload_path"`
	IsPopular   *bool     `json:"is_popular"`
	IsPublic    *bool     `json:"is_public"`
}

// CreateArtworkRequest for POST /api/artworks with a JSON body
type CreateArtworkRequest struct {
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	Genre       string      `json:"genre"`
	Year        NullableInt `json:"year"`
	Rating      NullableInt `json:"rating"`
	Description string      `json:"description"`
	ImageURL    ImageURLs   `json:"image_url"`
	IsPopular   *bool       `json:"is_popular"`
	IsPublic    *bool       `json:"is_public"`
}

// ToInput converts the request into service input
func (r *CreateArtworkRequest) ToInput() Input {
	in := Input{
		Title:       r.Title,
		Artist:      r.Artist,
		Genre:       Genre(r.Genre),
		Year:        r.Year.Ptr(),
		Description: r.Description,
		ImageURLs:   r.ImageURL,
		IsPopular:   r.IsPopular,
		IsPublic:    r.IsPublic,
	}
	if v := r.Rating.Ptr(); v != nil {
		in.Rating = *v
	}
	return in
}

// NullableInt decodes a JSON number, a numeric string, "" or null.
// Form-driven clients send numbers as strings.
type NullableInt struct {
	Value int
	Set   bool
}

// Ptr returns the value or nil when unset
func (n NullableInt) Ptr() *int {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = NullableInt{}
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = NullableInt{}
			return nil
		}
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("expected an integer")
	}
	*n = NullableInt{Value: v, Set: true}
	return nil
}

// RateRequest for PATCH /api/artworks/{id}
type RateRequest struct {
	Rating json.RawMessage `json:"rating"`
}

// ParseRating accepts only a bare JSON integer in [1,5]. Strings, fractions,
// booleans and null are rejected.
func ParseRating(raw json.RawMessage) (int, error) {
	v, err := strconv.Atoi(string(bytes.TrimSpace(raw)))
	if err != nil {
		return 0, ErrInvalidRating
	}
	if v < 1 || v > 5 {
		return 0, ErrInvalidRating
	}
	return v, nil
}

// ArtworkResponse represents an artwork in API responses
type ArtworkResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Genre         Genre     `json:"genre"`
	Year          *int      `json:"year"`
	Rating        int       `json:"rating"`
	Description   *string   `json:"description"`
	ImageURL      ImageURLs `json:"image_url"`
	ThumbnailURLs []string  `json:"thumbnail_urls"`
	IsPopular     bool      `json:"is_popular"`
	IsPublic      bool      `json:"is_public"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ArtworkResponseFromEntity converts entity to response
func ArtworkResponseFromEntity(a *Artwork) *ArtworkResponse {
	resp := &ArtworkResponse{
		ID:            a.ID,
		Title:         a.Title,
		Artist:        a.Artist,
		Genre:         a.Genre,
		Year:          a.YearPtr(),
		Rating:        a.Rating,
		ImageURL:      a.ImageURLs,
		ThumbnailURLs: make([]string, 0, len(a.ImageURLs)),
		IsPopular:     a.IsPopular,
		IsPublic:      a.IsPublic,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Description.Valid {
		d := a.Description.String
		resp.Description = &d
	}
	for _, url := range a.ImageURLs {
		if thumb := upload.ThumbnailURL(url); thumb != "" {
			resp.ThumbnailURLs = append(resp.ThumbnailURLs, thumb)
		}
	}
	return resp
}

// ArtworkResponsesFromEntities converts a list, never returning nil
func ArtworkResponsesFromEntities(items []*Artwork) []*ArtworkResponse {
	out := make([]*ArtworkResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ArtworkResponseFromEntity(a))
	}
	return out
}
