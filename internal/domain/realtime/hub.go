// Package realtime pushes artwork events to websocket clients. With Redis
// configured every API instance relays the events it publishes to all others.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/pkg/metrics"
)

// EventsChannel is the Redis channel artwork events are relayed on
const EventsChannel = "gallery:events"

const sendBuffer = 64

type relayMessage struct {
	SenderInstanceID string          `json:"sender_instance_id"`
	Payload          json.RawMessage `json:"payload"`
}

// Connection represents a WebSocket connection
type Connection struct {
	Conn *websocket.Conn
	Send chan []byte
}

// NewConnection wraps conn with a buffered send queue
func NewConnection(conn *websocket.Conn) *Connection {
	return &Connection{Conn: conn, Send: make(chan []byte, sendBuffer)}
}

// Hub fans artwork events out to local websocket connections
type Hub struct {
	connections map[*Connection]struct{}
	mu          sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	instanceID string
	metrics    *metrics.Metrics
}

// NewHub creates a hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, m *metrics.Metrics) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString(), m)
}

// NewHubWithInstanceID creates a hub with an explicit instance identifier
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string, m *metrics.Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[*Connection]struct{}),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
		metrics:     m,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, EventsChannel)
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.runRedisSubscriber()
		}()
	}

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn] = struct{}{}
			h.mu.Unlock()
			h.metrics.WSConnections(1)
			log.Debug().Msg("Client connected to realtime feed")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				close(conn.Send)
				h.metrics.WSConnections(-1)
			}
			h.mu.Unlock()
			log.Debug().Msg("Client disconnected from realtime feed")
		}
	}
}

// Register adds a connection. It returns false once the hub is shut down.
func (h *Hub) Register(conn *Connection) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// Publish implements artwork.EventPublisher. Local clients get the event
// immediately; other instances get it through Redis.
func (h *Hub) Publish(ctx context.Context, event artwork.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal realtime event")
		return
	}

	h.broadcastLocal(data)

	if h.redis == nil {
		return
	}
	msg, err := json.Marshal(relayMessage{SenderInstanceID: h.instanceID, Payload: data})
	if err != nil {
		return
	}
	if err := h.redis.Publish(h.ctx, EventsChannel, msg).Err(); err != nil {
		log.Warn().Err(err).Str("channel", EventsChannel).Msg("Redis publish failed")
	}
}

// runRedisSubscriber relays events published by other instances
func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRelayPayload(msg.Payload)
		}
	}
}

func (h *Hub) handleRelayPayload(payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return
	}
	// Already delivered locally by Publish
	if msg.SenderInstanceID == h.instanceID {
		return
	}
	h.broadcastLocal(msg.Payload)
}

// broadcastLocal sends data to clients connected to this instance
func (h *Hub) broadcastLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections {
		select {
		case conn.Send <- data:
		default:
			// Buffer full, skip this message
			log.Warn().Msg("Realtime send buffer full, dropping event")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		delete(h.connections, conn)
		close(conn.Send)
		h.metrics.WSConnections(-1)
	}
}

// ConnectionCount returns number of local connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Shutdown stops the hub and closes every connection queue
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
	h.wg.Wait()
}
