package artwork

import (
	"context"
	"database/sql"
	"html"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/artgallery/gallery-api/internal/domain/upload"
	"github.com/artgallery/gallery-api/internal/pkg/logger"
	"github.com/artgallery/gallery-api/internal/pkg/metrics"
	"github.com/artgallery/gallery-api/internal/pkg/validator"
)

// SuggestLimit caps typeahead results
const SuggestLimit = 5

// ImageStore stores and removes artwork images
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (*upload.Image, error)
	Remove(ctx context.Context, url string) error
}

// Service handles artwork business logic
type Service struct {
	repo    Repository
	images  ImageStore
	events  EventPublisher
	metrics *metrics.Metrics
	policy  *bluemonday.Policy
	now     func() time.Time
}

// NewService creates artwork service. events and m may be nil.
func NewService(repo Repository, images ImageStore, events EventPublisher, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		images:  images,
		events:  events,
		metrics: m,
		policy:  bluemonday.StrictPolicy(),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// List returns artworks filtered, searched and sorted by q
func (s *Service) List(ctx context.Context, q Query) ([]*Artwork, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyQuery(items, q), nil
}

// Suggest returns the first matches of term in list order
func (s *Service) Suggest(ctx context.Context, term string, limit int) ([]*Artwork, error) {
	if strings.TrimSpace(term) == "" {
		return []*Artwork{}, nil
	}
	if limit <= 0 || limit > SuggestLimit {
		limit = SuggestLimit
	}

	items, err := s.List(ctx, Query{Term: term})
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// GetByID returns artwork by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Artwork, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrArtworkNotFound
	}
	return a, nil
}

// Create inserts an artwork whose images were uploaded beforehand
func (s *Service) Create(ctx context.Context, in Input) (*Artwork, error) {
	a, err := s.create(ctx, in, nil, false)
	s.metrics.ArtworkOperation("create", err)
	return a, err
}

// CreateWithImages stores the given files and inserts an artwork pointing
// at them. Genre is required here.
func (s *Service) CreateWithImages(ctx context.Context, in Input, files []io.Reader) (*Artwork, error) {
	a, err := s.create(ctx, in, files, true)
	s.metrics.ArtworkOperation("create", err)
	return a, err
}

func (s *Service) create(ctx context.Context, in Input, files []io.Reader, requireGenre bool) (*Artwork, error) {
	if err := s.validate(&in, requireGenre); err != nil {
		return nil, err
	}

	stored, err := s.storeImages(ctx, files)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &Artwork{
		Title:     in.Title,
		Artist:    in.Artist,
		Genre:     in.Genre,
		Rating:    in.Rating,
		ImageURLs: append(append(ImageURLs{}, in.ImageURLs...), stored...),
		IsPublic:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(a.ImageURLs) == 0 {
		a.ImageURLs = nil
	}
	in.applyTo(a)

	if err := s.repo.Create(ctx, a); err != nil {
		s.removeImages(ctx, stored)
		return nil, err
	}

	s.publish(ctx, EventCreated, a)
	return a, nil
}

// Rate sets the rating of an artwork
func (s *Service) Rate(ctx context.Context, id int64, rating int) (*Artwork, error) {
	a, err := s.rate(ctx, id, rating)
	s.metrics.ArtworkOperation("rate", err)
	return a, err
}

func (s *Service) rate(ctx context.Context, id int64, rating int) (*Artwork, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.Rating = rating
	a.UpdatedAt = s.now()
	if err := s.repo.UpdateRating(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, EventRated, a)
	return a, nil
}

// Update replaces every field of an artwork. New files, when given,
// replace the image list; the previous files are removed afterwards.
func (s *Service) Update(ctx context.Context, id int64, in Input, files []io.Reader) (*Artwork, error) {
	a, err := s.update(ctx, id, in, files)
	s.metrics.ArtworkOperation("update", err)
	return a, err
}

func (s *Service) update(ctx context.Context, id int64, in Input, files []io.Reader) (*Artwork, error) {
	if err := s.validate(&in, true); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.storeImages(ctx, files)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Title = in.Title
	updated.Artist = in.Artist
	updated.Genre = in.Genre
	updated.Rating = in.Rating
	updated.UpdatedAt = s.now()
	in.applyTo(&updated)

	switch {
	case len(stored) > 0:
		updated.ImageURLs = stored
	case in.ImageURLs != nil:
		updated.ImageURLs = in.ImageURLs
	}
	if len(updated.ImageURLs) == 0 {
		updated.ImageURLs = nil
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		s.removeImages(ctx, stored)
		return nil, err
	}

	s.removeUnshared(ctx, id, dropped(existing.ImageURLs, updated.ImageURLs))

	s.publish(ctx, EventUpdated, &updated)
	return &updated, nil
}

// Delete removes an artwork, then its image files on a best-effort basis
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.delete(ctx, id)
	s.metrics.ArtworkOperation("delete", err)
	return err
}

func (s *Service) delete(ctx context.Context, id int64) error {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.removeUnshared(ctx, id, a.ImageURLs)

	if s.events != nil {
		s.events.Publish(ctx, Event{Type: EventDeleted, ArtworkID: id, At: s.now()})
	}
	return nil
}

// ReferencedImages lists every stored image still attached to an artwork
func (s *Service) ReferencedImages(ctx context.Context) ([]string, error) {
	return s.repo.ReferencedImages(ctx)
}

// validate sanitises free text in place and checks field rules
func (s *Service) validate(in *Input, requireGenre bool) error {
	in.Title = s.clean(in.Title)
	in.Artist = s.clean(in.Artist)
	in.Description = s.clean(in.Description)
	in.Genre = Genre(strings.TrimSpace(string(in.Genre)))

	errs := ValidationErrors{}
	if fields := validator.Validate(in); fields != nil {
		for k, v := range fields {
			errs[k] = v
		}
	}
	if requireGenre && in.Genre == "" {
		errs["genre"] = "This field is required"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func (s *Service) storeImages(ctx context.Context, files []io.Reader) (ImageURLs, error) {
	var stored ImageURLs
	for _, f := range files {
		img, err := s.images.Save(ctx, f)
		if err != nil {
			s.removeImages(ctx, stored)
			return nil, err
		}
		stored = append(stored, img.URL)
	}
	return stored, nil
}

// removeUnshared removes the files of urls that no artwork other than id
// points at. If the references cannot be loaded nothing is removed; the
// sweeper collects whatever is left orphaned.
func (s *Service) removeUnshared(ctx context.Context, id int64, urls []string) {
	if len(urls) == 0 {
		return
	}

	shared, err := s.repo.ImagesReferencedElsewhere(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("artwork_id", id).Msg("Skipping image cleanup")
		return
	}

	inUse := make(map[string]struct{}, len(shared))
	for _, u := range shared {
		inUse[u] = struct{}{}
	}
	var orphaned []string
	for _, u := range urls {
		if _, ok := inUse[u]; !ok {
			orphaned = append(orphaned, u)
		}
	}
	s.removeImages(ctx, orphaned)
}

// removeImages deletes files best-effort. Failures are logged and counted.
func (s *Service) removeImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.images.Remove(ctx, url); err != nil {
			s.metrics.CleanupFailed()
			logger.FromContext(ctx).Warn().Err(err).Str("image_url", url).Msg("Failed to remove image file")
		}
	}
}

func (s *Service) publish(ctx context.Context, t EventType, a *Artwork) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, Event{
		Type:      t,
		ArtworkID: a.ID,
		Artwork:   ArtworkResponseFromEntity(a),
		At:        s.now(),
	})
}

// applyTo copies the optional fields of in onto a
func (in *Input) applyTo(a *Artwork) {
	a.Year = sql.NullInt64{}
	if in.Year != nil {
		a.Year = sql.NullInt64{Int64: int64(*in.Year), Valid: true}
	}
	a.Description = sql.NullString{String: in.Description, Valid: in.Description != ""}
	if in.IsPopular != nil {
		a.IsPopular = *in.IsPopular
	}
	if in.IsPublic != nil {
		a.IsPublic = *in.IsPublic
	}
}

// dropped returns the entries of before that are missing from after
func dropped(before, after ImageURLs) []string {
	keep := make(map[string]struct{}, len(after))
	for _, u := range after {
		keep[u] = struct{}{}
	}
	var out []string
	for _, u := range before {
		if _, ok := keep[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}
