package comment

import (
	"errors"
	"time"
)

var (
	ErrArtworkNotFound = errors.New("artwork not found")
	ErrInvalidAge      = errors.New("age must be between 1 and 150")
)

// Comment is a visitor reaction to an artwork. Only the age is kept;
// it feeds the age-by-genre aggregate.
type Comment struct {
	ID        int64     `db:"id"`
	ArtworkID int64     `db:"artwork_id"`
	Age       int       `db:"age"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateCommentRequest for POST /api/artworks/{id}/comments
type CreateCommentRequest struct {
	Age int `json:"age" validate:"required,gte=1,lte=150"`
}

// CommentResponse represents a comment in API responses
type CommentResponse struct {
	ID        int64     `json:"id"`
	ArtworkID int64     `json:"artwork_id"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentResponseFromEntity converts entity to response
func CommentResponseFromEntity(c *Comment) *CommentResponse {
	return &CommentResponse{
		ID:        c.ID,
		ArtworkID: c.ArtworkID,
		Age:       c.Age,
		CreatedAt: c.CreatedAt,
	}
}
