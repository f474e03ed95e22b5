package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/artgallery/gallery-api/internal/pkg/imaging"
	"github.com/artgallery/gallery-api/internal/pkg/metrics"
	"github.com/artgallery/gallery-api/internal/pkg/storage"
)

// DefaultMaxBytes is the per-file limit when none is configured
const DefaultMaxBytes int64 = 5 << 20

// Service validates, processes and stores artwork images
type Service struct {
	storage   storage.Storage
	processor *imaging.Processor
	maxBytes  int64
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService creates upload service
func NewService(st storage.Storage, processor *imaging.Processor, maxBytes int64, m *metrics.Metrics) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if processor == nil {
		processor = imaging.NewProcessor(imaging.DefaultConfig())
	}
	return &Service{
		storage:   st,
		processor: processor,
		maxBytes:  maxBytes,
		metrics:   m,
		now:       time.Now,
	}
}

// MaxBytes returns the per-file size limit
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates r as a JPEG, PNG or GIF no larger than MaxBytes and stores
// it together with its thumbnail.
func (s *Service) Save(ctx context.Context, r io.Reader) (*Image, error) {
	img, err := s.save(ctx, r)
	if err != nil {
		s.metrics.Upload(uploadResult(err))
		return nil, err
	}
	s.metrics.Upload("ok")
	return img, nil
}

func (s *Service) save(ctx context.Context, r io.Reader) (*Image, error) {
	data, mimeType, err := storage.ValidateImage(r, s.maxBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return nil, ErrFileTooLarge
		case errors.Is(err, storage.ErrInvalidMimeType):
			return nil, ErrInvalidMime
		case errors.Is(err, storage.ErrEmptyFile):
			return nil, ErrNoFile
		default:
			return nil, err
		}
	}

	processed, err := s.processor.Process(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	key := s.newKey(mimeType)
	if err := s.storage.Put(ctx, key, bytes.NewReader(processed.Original), mimeType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	thumbKey := ThumbnailKey(key)
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), "image/jpeg"); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	return &Image{
		Key:          key,
		URL:          URLForKey(key),
		ThumbnailURL: URLForKey(thumbKey),
		ContentType:  mimeType,
		Size:         int64(len(processed.Original)),
		Width:        processed.Width,
		Height:       processed.Height,
	}, nil
}

// Open returns a stored image and its content type
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !storage.ValidKey(key) {
		return nil, "", ErrFileNotFound
	}
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", err
	}
	return rc, storage.ContentTypeForKey(key), nil
}

// Remove deletes the image behind url and its thumbnail. URLs outside the
// upload store are ignored.
func (s *Service) Remove(ctx context.Context, url string) error {
	key, ok := KeyFromURL(url)
	if !ok {
		return nil
	}
	return errors.Join(
		s.storage.Delete(ctx, key),
		s.storage.Delete(ctx, ThumbnailKey(key)),
	)
}

// newKey derives a stored name from the upload time. The random suffix
// keeps two uploads in the same millisecond apart.
func (s *Service) newKey(mimeType string) string {
	return fmt.Sprintf("%d-%s%s",
		s.now().UnixMilli(),
		uuid.NewString()[:8],
		storage.GetExtensionForMime(mimeType),
	)
}

func uploadResult(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, ErrInvalidMime), errors.Is(err, ErrNotAnImage):
		return "invalid_type"
	case errors.Is(err, ErrNoFile):
		return "empty"
	default:
		return "error"
	}
}
