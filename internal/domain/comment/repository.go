package comment

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines comment data access interface
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	ListByArtwork(ctx context.Context, artworkID int64) ([]*Comment, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates comment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create inserts a comment and sets its ID
func (r *repository) Create(ctx context.Context, c *Comment) error {
	query := r.db.Rebind(`INSERT INTO comments (artwork_id, age, created_at) VALUES (?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		if err := r.db.QueryRowxContext(ctx, query+" RETURNING id", c.ArtworkID, c.Age, c.CreatedAt).Scan(&c.ID); err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, c.ArtworkID, c.Age, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("read comment id: %w", err)
	}
	return nil
}

// ListByArtwork returns comments of one artwork, newest first
func (r *repository) ListByArtwork(ctx context.Context, artworkID int64) ([]*Comment, error) {
	query := r.db.Rebind(`
		SELECT id, artwork_id, age, created_at
		FROM comments
		WHERE artwork_id = ?
		ORDER BY created_at DESC, id DESC`)

	comments := []*Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, artworkID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
