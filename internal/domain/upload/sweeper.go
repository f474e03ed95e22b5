package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/artgallery/gallery-api/internal/pkg/metrics"
	"github.com/artgallery/gallery-api/internal/pkg/storage"
)

// SweepChannel is the Redis channel that wakes standalone sweepers early
const SweepChannel = "gallery:sweep"

// ReferenceSource lists every image URL still attached to a record
type ReferenceSource interface {
	ReferencedImages(ctx context.Context) ([]string, error)
}

// SweepResult summarises one sweep
type SweepResult struct {
	Scanned    int
	Referenced int
	TooYoung   int
	Deleted    []string
	Failed     int
}

// Sweeper removes stored files no artwork references any more. Files
// younger than the grace period are kept because an upload may not be
// attached to an artwork yet.
type Sweeper struct {
	storage  storage.Storage
	refs     ReferenceSource
	grace    time.Duration
	interval time.Duration
	dryRun   bool
	metrics  *metrics.Metrics
	now      func() time.Time

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// SweeperConfig configures a Sweeper
type SweeperConfig struct {
	Grace    time.Duration
	Interval time.Duration
	DryRun   bool
}

// NewSweeper creates a new orphan sweeper
func NewSweeper(st storage.Storage, refs ReferenceSource, cfg SweeperConfig, m *metrics.Metrics) *Sweeper {
	if cfg.Grace <= 0 {
		cfg.Grace = time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Sweeper{
		storage:  st,
		refs:     refs,
		grace:    cfg.Grace,
		interval: cfg.Interval,
		dryRun:   cfg.DryRun,
		metrics:  m,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Sweep runs a single pass
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	urls, err := s.refs.ReferencedImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load referenced images: %w", err)
	}

	keep := make(map[string]struct{}, len(urls)*2)
	for _, url := range urls {
		if key, ok := KeyFromURL(url); ok {
			keep[key] = struct{}{}
			keep[ThumbnailKey(key)] = struct{}{}
		}
	}

	objects, err := s.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored files: %w", err)
	}

	result := &SweepResult{Scanned: len(objects)}
	cutoff := s.now().Add(-s.grace)

	for _, obj := range objects {
		if _, ok := keep[obj.Key]; ok {
			result.Referenced++
			continue
		}
		if obj.ModTime.After(cutoff) {
			result.TooYoung++
			continue
		}

		if !s.dryRun {
			if err := s.storage.Delete(ctx, obj.Key); err != nil {
				log.Warn().Err(err).Str("key", obj.Key).Msg("Failed to delete orphaned file")
				result.Failed++
				continue
			}
		}
		result.Deleted = append(result.Deleted, obj.Key)
	}

	if !s.dryRun {
		s.metrics.Swept(len(result.Deleted))
	}

	return result, nil
}

// Start begins the background sweeper
func (s *Sweeper) Start() {
	log.Info().Dur("interval", s.interval).Dur("grace", s.grace).Msg("Starting orphan sweeper")
	go s.loop(nil)
}

// StartWithWakeups is Start plus an extra trigger channel, e.g. fed by Redis
func (s *Sweeper) StartWithWakeups(wake <-chan struct{}) {
	log.Info().Dur("interval", s.interval).Dur("grace", s.grace).Msg("Starting orphan sweeper")
	go s.loop(wake)
}

// Stop stops the sweeper and waits for the current pass to finish
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		log.Info().Msg("Stopping orphan sweeper")
		close(s.stopCh)
	})
	<-s.done
}

func (s *Sweeper) loop(wake <-chan struct{}) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	s.runOnce()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-wake:
			s.runOnce()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := s.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Orphan sweep failed")
		return
	}

	event := log.Debug()
	if len(result.Deleted) > 0 || result.Failed > 0 {
		event = log.Info()
	}
	event.
		Int("scanned", result.Scanned).
		Int("referenced", result.Referenced).
		Int("too_young", result.TooYoung).
		Int("deleted", len(result.Deleted)).
		Int("failed", result.Failed).
		Bool("dry_run", s.dryRun).
		Msg("Orphan sweep finished")
}
