package analytics

import (
	"context"
	"time"

	"github.com/artgallery/gallery-api/internal/pkg/cache"
	"github.com/artgallery/gallery-api/internal/pkg/logger"
	"github.com/artgallery/gallery-api/internal/pkg/metrics"
)

// CacheKeyPrefix namespaces every cached aggregate
const CacheKeyPrefix = "analytics:"

// Service serves the dashboard aggregates through a short-lived cache
type Service struct {
	repo       Repository
	cache      cache.Cache
	ttl        time.Duration
	yearSource YearSource
	metrics    *metrics.Metrics
}

// NewService creates analytics service. c may be nil to disable caching.
func NewService(repo Repository, c cache.Cache, ttl time.Duration, source YearSource, m *metrics.Metrics) *Service {
	if source == "" {
		source = YearFromField
	}
	return &Service{
		repo:       repo,
		cache:      c,
		ttl:        ttl,
		yearSource: source,
		metrics:    m,
	}
}

// YearSource returns the field the year-wise aggregate groups by
func (s *Service) YearSource() YearSource {
	return s.yearSource
}

func (s *Service) GenrePopularity(ctx context.Context) ([]GenreCount, error) {
	return cached(ctx, s, CacheKeyPrefix+"genre-popularity", s.repo.GenrePopularity)
}

func (s *Service) YearWise(ctx context.Context) ([]YearGenreCount, error) {
	return cached(ctx, s, CacheKeyPrefix+"year-wise:"+string(s.yearSource), func(ctx context.Context) ([]YearGenreCount, error) {
		return s.repo.YearWise(ctx, s.yearSource)
	})
}

func (s *Service) AgeGenre(ctx context.Context) ([]AgeGenreCount, error) {
	return cached(ctx, s, CacheKeyPrefix+"age-genre", s.repo.AgeGenre)
}

// Invalidate drops every cached aggregate. Failures are logged only;
// entries expire on their own.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, CacheKeyPrefix); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("Failed to invalidate analytics cache")
	}
}

// cached serves key from the cache or loads and stores it. Cache errors
// never fail the request.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil || s.ttl <= 0 {
		return load(ctx)
	}

	var value T
	found, err := s.cache.Get(ctx, key, &value)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Analytics cache read failed")
	}
	if found && err == nil {
		s.metrics.AnalyticsCache(true)
		return value, nil
	}
	s.metrics.AnalyticsCache(false)

	value, err = load(ctx)
	if err != nil {
		return value, err
	}

	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Analytics cache write failed")
	}
	return value, nil
}
