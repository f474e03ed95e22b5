package artwork

import (
	"context"
	"time"
)

// EventType names an artwork lifecycle event
type EventType string

const (
	EventCreated EventType = "artwork.created"
	EventUpdated EventType = "artwork.updated"
	EventRated   EventType = "artwork.rated"
	EventDeleted EventType = "artwork.deleted"
)

// Event is published after every successful mutation
type Event struct {
	Type      EventType        `json:"type"`
	ArtworkID int64            `json:"artwork_id"`
	Artwork   *ArtworkResponse `json:"artwork,omitempty"`
	At        time.Time        `json:"at"`
}

// EventPublisher receives artwork events. Publish must not block on slow consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

// Publishers fans an event out to several publishers
type Publishers []EventPublisher

func (p Publishers) Publish(ctx context.Context, event Event) {
	for _, pub := range p {
		if pub != nil {
			pub.Publish(ctx, event)
		}
	}
}

// PublisherFunc adapts a function to EventPublisher
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}
