package artwork

import (
	"database/sql"
	"time"

	"github.com/artgallery/gallery-api/internal/pkg/validator"
)

// Genre is the closed set of artwork categories
type Genre string

const (
	GenrePainting    Genre = "Painting"
	GenreSculpture   Genre = "Sculpture"
	GenrePhotography Genre = "Photography"
	GenreOther       Genre = "Other"
)

// Genres lists every valid genre in display order
var Genres = []Genre{GenrePainting, GenreSculpture, GenrePhotography, GenreOther}

// Valid reports whether g is one of the known genres
func (g Genre) Valid() bool {
	switch g {
	case GenrePainting, GenreSculpture, GenrePhotography, GenreOther:
		return true
	}
	return false
}

func init() {
	validator.Register("genre", func(s string) bool {
		return Genre(s).Valid()
	}, "Genre must be one of Painting, Sculpture, Photography, Other")
}

// Artwork represents a catalog entry (matches artworks table)
type Artwork struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Artist      string         `db:"artist"`
	Genre       Genre          `db:"genre"`
	Year        sql.NullInt64  `db:"year"`
	Rating      int            `db:"rating"`
	Description sql.NullString `db:"description"`
	ImageURLs   ImageURLs      `db:"image_url"`
	IsPopular   bool           `db:"is_popular"`
	IsPublic    bool           `db:"is_public"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// YearPtr returns the year or nil when unset
func (a *Artwork) YearPtr() *int {
	if !a.Year.Valid {
		return nil
	}
	y := int(a.Year.Int64)
	return &y
}

// HasImages reports whether the artwork references any stored image
func (a *Artwork) HasImages() bool {
	return len(a.ImageURLs) > 0
}
