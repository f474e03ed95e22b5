package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/artgallery/gallery-api/internal/domain/analytics"
	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/domain/upload"
)

// analyticsInvalidator drops cached aggregates after any artwork change
func analyticsInvalidator(svc *analytics.Service) artwork.EventPublisher {
	return artwork.PublisherFunc(func(ctx context.Context, event artwork.Event) {
		svc.Invalidate(ctx)
	})
}

// sweepTrigger wakes sweepers when an artwork lets go of images
type sweepTrigger struct {
	redis *redis.Client
	local chan struct{}
}

func newSweepTrigger(client *redis.Client) *sweepTrigger {
	return &sweepTrigger{redis: client, local: make(chan struct{}, 1)}
}

// Local is the wake channel for an in-process sweeper
func (t *sweepTrigger) Local() <-chan struct{} {
	return t.local
}

func (t *sweepTrigger) Publish(ctx context.Context, event artwork.Event) {
	if event.Type != artwork.EventUpdated && event.Type != artwork.EventDeleted {
		return
	}

	// non-blocking wake-up
	select {
	case t.local <- struct{}{}:
	default:
	}

	if t.redis == nil {
		return
	}
	if err := t.redis.Publish(ctx, upload.SweepChannel, event.ArtworkID).Err(); err != nil {
		log.Warn().Err(err).Str("channel", upload.SweepChannel).Msg("Redis publish failed")
	}
}
