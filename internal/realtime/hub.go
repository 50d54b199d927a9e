package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
)

const sendBuffer = 32

// Envelope is the server-to-client message frame.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// wireEnvelope wraps an envelope for the Redis bridge so an instance can skip
// its own publications.
type wireEnvelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// Client is one live connection. Identity is bound at handshake time and never
// re-resolved per message.
type Client struct {
	send chan []byte
	user *domain.User
}

// User returns the identity bound to the connection, or nil for anonymous.
func (c *Client) User() *domain.User {
	return c.user
}

// Hub is the single shared broadcast domain: every registered connection
// receives every event, best-effort, at most once.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	logger     *zap.Logger
	instanceID string
	redis      *redis.Client
	channel    string
}

// NewHub builds the hub. redisClient may be nil; the hub then fans out to
// local connections only.
func NewHub(logger *zap.Logger, redisClient *redis.Client, channel string) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		logger:     logger,
		instanceID: uuid.NewString(),
		redis:      redisClient,
		channel:    channel,
	}
}

// Register adds a connection with its bound identity.
func (h *Hub) Register(user *domain.User) *Client {
	client := &Client{
		send: make(chan []byte, sendBuffer),
		user: user,
	}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	return client
}

// Unregister removes a connection and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// Broadcast fans the envelope out to every connection, and across instances
// when the Redis bridge is up.
func (h *Hub) Broadcast(ctx context.Context, eventType string, data any) {
	payload, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("marshal broadcast", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.broadcastLocal(payload)
	h.publishRemote(ctx, payload)
}

// broadcastLocal delivers to connected clients without blocking the sender;
// a slow consumer with a full buffer loses the message.
func (h *Hub) broadcastLocal(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Debug("dropping message for slow consumer")
		}
	}
}

func (h *Hub) publishRemote(ctx context.Context, payload []byte) {
	if h.redis == nil {
		return
	}
	wire, err := json.Marshal(wireEnvelope{Origin: h.instanceID, Payload: payload})
	if err != nil {
		return
	}
	if err := h.redis.Publish(ctx, h.channel, wire).Err(); err != nil {
		h.logger.Debug("redis publish failed", zap.Error(err))
	}
}

// Run consumes the Redis channel and re-broadcasts envelopes published by
// other instances. Returns when the context is cancelled. With no Redis
// client it returns immediately.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}
	pubsub := h.redis.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var wire wireEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
				continue
			}
			if wire.Origin == h.instanceID {
				continue
			}
			h.broadcastLocal(wire.Payload)
		}
	}
}

// RegisterEventHandlers subscribes the hub to ticket notifications so every
// store mutation reaches connected clients.
func (h *Hub) RegisterEventHandlers(dispatcher events.Dispatcher) {
	relay := func(ctx context.Context, event events.Event) error {
		ticket, ok := event.Payload.(*domain.Ticket)
		if !ok {
			return nil
		}
		h.Broadcast(ctx, string(event.Type), dto.TicketFromDomain(ticket))
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, relay)
	dispatcher.Subscribe(events.EventTicketUpdated, relay)
}

// ConnectionCount reports the live connection total.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
