package artwork

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines artwork data access interface
type Repository interface {
	Create(ctx context.Context, artwork *Artwork) error
	GetByID(ctx context.Context, id int64) (*Artwork, error)
	List(ctx context.Context) ([]*Artwork, error)
	Update(ctx context.Context, artwork *Artwork) error
	UpdateRating(ctx context.Context, artwork *Artwork) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	ReferencedImages(ctx context.Context) ([]string, error)
	ImagesReferencedElsewhere(ctx context.Context, id int64) ([]string, error)
	NormalizeImageURLs(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates artwork repository over postgres, mysql or sqlite
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const artworkSelectColumns = `
	id, title, artist, genre, year, rating, description, image_url,
	is_popular, is_public, created_at, updated_at`

// Create inserts a new artwork and sets its ID
func (r *repository) Create(ctx context.Context, a *Artwork) error {
	query := r.db.Rebind(`
		INSERT INTO artworks (
			title, artist, genre, year, rating, description, image_url,
			is_popular, is_public, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	args := []interface{}{
		a.Title, a.Artist, a.Genre, a.Year, a.Rating, a.Description, a.ImageURLs,
		a.IsPopular, a.IsPublic, a.CreatedAt, a.UpdatedAt,
	}

	// lib/pq has no LastInsertId
	if r.db.DriverName() == "postgres" {
		if err := r.db.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&a.ID); err != nil {
			return fmt.Errorf("insert artwork: %w", err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert artwork: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read artwork id: %w", err)
	}
	a.ID = id
	return nil
}

// GetByID returns an artwork, or nil if none matches
func (r *repository) GetByID(ctx context.Context, id int64) (*Artwork, error) {
	query := r.db.Rebind(`SELECT ` + artworkSelectColumns + ` FROM artworks WHERE id = ?`)

	var a Artwork
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artwork %d: %w", id, err)
	}
	return &a, nil
}

// List returns every artwork, newest first
func (r *repository) List(ctx context.Context) ([]*Artwork, error) {
	query := `SELECT ` + artworkSelectColumns + ` FROM artworks ORDER BY created_at DESC, id DESC`

	artworks := []*Artwork{}
	if err := r.db.SelectContext(ctx, &artworks, query); err != nil {
		return nil, fmt.Errorf("list artworks: %w", err)
	}
	return artworks, nil
}

// Update rewrites every mutable column. created_at is never touched.
func (r *repository) Update(ctx context.Context, a *Artwork) error {
	query := r.db.Rebind(`
		UPDATE artworks SET
			title = ?, artist = ?, genre = ?, year = ?, rating = ?,
			description = ?, image_url = ?, is_popular = ?, is_public = ?,
			updated_at = ?
		WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		a.Title, a.Artist, a.Genre, a.Year, a.Rating,
		a.Description, a.ImageURLs, a.IsPopular, a.IsPublic,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update artwork %d: %w", a.ID, err)
	}
	return requireRow(res, a.ID)
}

// UpdateRating writes rating and updated_at only
func (r *repository) UpdateRating(ctx context.Context, a *Artwork) error {
	query := r.db.Rebind(`UPDATE artworks SET rating = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, a.Rating, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update rating %d: %w", a.ID, err)
	}
	return requireRow(res, a.ID)
}

// requireRow maps an update that matched nothing to ErrArtworkNotFound.
// MySQL connections need clientFoundRows for unchanged rows to count.
func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for artwork %d: %w", id, err)
	}
	if n == 0 {
		return ErrArtworkNotFound
	}
	return nil
}

// Delete removes an artwork row. Comments are left in place.
func (r *repository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM artworks WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete artwork %d: %w", id, err)
	}
	return nil
}

// Exists reports whether an artwork with id exists
func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM artworks WHERE id = ?`)
	var n int
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return false, fmt.Errorf("check artwork %d: %w", id, err)
	}
	return n > 0, nil
}

// ReferencedImages returns every image path any artwork points at
func (r *repository) ReferencedImages(ctx context.Context) ([]string, error) {
	query := `SELECT image_url FROM artworks WHERE image_url IS NOT NULL`

	var rows []ImageURLs
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load image references: %w", err)
	}
	return flatten(rows), nil
}

// ImagesReferencedElsewhere returns the image paths of every artwork except id
func (r *repository) ImagesReferencedElsewhere(ctx context.Context, id int64) ([]string, error) {
	query := r.db.Rebind(`SELECT image_url FROM artworks WHERE image_url IS NOT NULL AND id <> ?`)

	var rows []ImageURLs
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, fmt.Errorf("load image references besides artwork %d: %w", id, err)
	}
	return flatten(rows), nil
}

func flatten(rows []ImageURLs) []string {
	var urls []string
	for _, list := range rows {
		urls = append(urls, list...)
	}
	return urls
}

// NormalizeImageURLs rewrites legacy bare-path image_url values as JSON
// arrays and returns how many rows changed.
func (r *repository) NormalizeImageURLs(ctx context.Context) (int, error) {
	type rawRow struct {
		ID       int64          `db:"id"`
		ImageURL sql.NullString `db:"image_url"`
	}

	// Read everything first; sqlite runs on a single connection
	var rows []rawRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, image_url FROM artworks`); err != nil {
		return 0, fmt.Errorf("load image_url values: %w", err)
	}

	update := r.db.Rebind(`UPDATE artworks SET image_url = ? WHERE id = ?`)
	changed := 0
	for _, row := range rows {
		if row.ImageURL.Valid && IsCanonical(row.ImageURL.String) {
			continue
		}

		var urls ImageURLs
		if row.ImageURL.Valid {
			if err := urls.Scan(row.ImageURL.String); err != nil {
				return changed, fmt.Errorf("artwork %d: %w", row.ID, err)
			}
		}
		if _, err := r.db.ExecContext(ctx, update, urls, row.ID); err != nil {
			return changed, fmt.Errorf("normalize artwork %d: %w", row.ID, err)
		}
		changed++
	}
	return changed, nil
}
