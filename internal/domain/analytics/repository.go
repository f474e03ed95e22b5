package analytics

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository runs the read-only aggregate queries
type Repository interface {
	GenrePopularity(ctx context.Context) ([]GenreCount, error)
	YearWise(ctx context.Context, source YearSource) ([]YearGenreCount, error)
	AgeGenre(ctx context.Context) ([]AgeGenreCount, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates analytics repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// GenrePopularity counts artworks per raw genre value, most popular first
func (r *repository) GenrePopularity(ctx context.Context) ([]GenreCount, error) {
	query := `
		SELECT genre, COUNT(*) AS count
		FROM artworks
		GROUP BY genre
		ORDER BY count DESC, genre ASC`

	rows := []GenreCount{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("genre popularity: %w", err)
	}
	return rows, nil
}

// YearWise counts artworks per (year, genre)
func (r *repository) YearWise(ctx context.Context, source YearSource) ([]YearGenreCount, error) {
	expr, err := yearExpr(r.db.DriverName(), source)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %[1]s AS year, genre, COUNT(*) AS count
		FROM artworks
		WHERE %[1]s IS NOT NULL
		GROUP BY 1, 2
		ORDER BY 1 ASC, 2 ASC`, expr)

	rows := []YearGenreCount{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("year-wise: %w", err)
	}
	return rows, nil
}

// AgeGenre counts comments per (commenter age, artwork genre). The inner
// join drops artworks without comments and comments of deleted artworks.
func (r *repository) AgeGenre(ctx context.Context) ([]AgeGenreCount, error) {
	query := `
		SELECT c.age AS age, a.genre AS genre, COUNT(*) AS count
		FROM comments c
		INNER JOIN artworks a ON a.id = c.artwork_id
		GROUP BY c.age, a.genre
		ORDER BY c.age ASC, a.genre ASC`

	rows := []AgeGenreCount{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("age-genre: %w", err)
	}
	return rows, nil
}

// yearExpr returns the SQL yielding the grouping year for a driver
func yearExpr(driver string, source YearSource) (string, error) {
	if source == YearFromField {
		return "year", nil
	}
	if source != YearFromCreatedAt {
		return "", fmt.Errorf("unknown year source %q", source)
	}

	switch driver {
	case "postgres":
		return "CAST(EXTRACT(YEAR FROM created_at) AS INTEGER)", nil
	case "mysql":
		return "YEAR(created_at)", nil
	case "sqlite3":
		return "CAST(strftime('%Y', created_at) AS INTEGER)", nil
	default:
		return "", fmt.Errorf("year-wise: unsupported driver %q", driver)
	}
}
