package comment

import (
	"context"
	"time"
)

// ArtworkChecker reports whether an artwork exists
type ArtworkChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ChangeNotifier is told when comment data changes, e.g. to drop cached aggregates
type ChangeNotifier interface {
	Invalidate(ctx context.Context)
}

// Service handles comment business logic
type Service struct {
	repo     Repository
	artworks ArtworkChecker
	notifier ChangeNotifier
	now      func() time.Time
}

// NewService creates comment service
func NewService(repo Repository, artworks ArtworkChecker) *Service {
	return &Service{
		repo:     repo,
		artworks: artworks,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// SetChangeNotifier sets the notifier (optional)
func (s *Service) SetChangeNotifier(n ChangeNotifier) {
	s.notifier = n
}

// Create adds a comment to an existing artwork
func (s *Service) Create(ctx context.Context, artworkID int64, age int) (*Comment, error) {
	if age < 1 || age > 150 {
		return nil, ErrInvalidAge
	}
	if err := s.ensureArtwork(ctx, artworkID); err != nil {
		return nil, err
	}

	c := &Comment{ArtworkID: artworkID, Age: age, CreatedAt: s.now()}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Invalidate(ctx)
	}
	return c, nil
}

// ListByArtwork returns comments of an existing artwork
func (s *Service) ListByArtwork(ctx context.Context, artworkID int64) ([]*Comment, error) {
	if err := s.ensureArtwork(ctx, artworkID); err != nil {
		return nil, err
	}
	return s.repo.ListByArtwork(ctx, artworkID)
}

func (s *Service) ensureArtwork(ctx context.Context, id int64) error {
	ok, err := s.artworks.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrArtworkNotFound
	}
	return nil
}
