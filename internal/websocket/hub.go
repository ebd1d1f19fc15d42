package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel shared by every instance
const DefaultChannel = "squadmatch:events"

// RoomMembersFunc returns the members of a chat room when userID belongs to it
type RoomMembersFunc func(ctx context.Context, roomID, userID string) ([]string, error)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients mapped by user ID
	Clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// done is closed when Run returns
	done chan struct{}

	redis       *redis.Client
	channel     string
	roomMembers RoomMembersFunc
	log         *slog.Logger
}

type Option func(*Hub)

// WithRedis fans events out through Redis so every instance delivers to its
// own connections
func WithRedis(client *redis.Client, channel string) Option {
	return func(h *Hub) {
		h.redis = client
		if channel != "" {
			h.channel = channel
		}
	}
}

// WithRoomMembers enables typing relays between chat room members
func WithRoomMembers(fn RoomMembersFunc) Option {
	return func(h *Hub) { h.roomMembers = fn }
}

func WithLogger(log *slog.Logger) Option {
	return func(h *Hub) { h.log = log }
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		channel:    DefaultChannel,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's main loop and, when configured, the Redis subscriber.
// It returns when ctx is cancelled, closing every client first.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.redis != nil {
		go h.subscribe(ctx)
	}

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// If user already has a connection, close the old one
	if existing, ok := h.Clients[client.ID]; ok {
		existing.close()
	}

	h.Clients[client.ID] = client
	h.log.Debug("websocket client connected", "userId", client.ID)
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.Clients[client.ID]; ok && current == client {
		delete(h.Clients, client.ID)
	}
	client.close()
	h.log.Debug("websocket client disconnected", "userId", client.ID)
}

// Attach hands a new connection to the hub. It reports false once the hub
// has stopped, in which case the caller owns closing the connection.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Detach removes a client, directly when the hub loop is no longer running
func (h *Hub) Detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
		h.unregisterClient(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.Clients {
		client.close()
		delete(h.Clients, id)
	}
}

// Notify pushes an event to userIDs on every instance
func (h *Hub) Notify(ctx context.Context, userIDs []string, event string, payload any) {
	h.publish(ctx, envelope{
		UserIDs: userIDs,
		Message: WSMessage{Type: EventType(event), Payload: payload, Timestamp: time.Now()},
	})
}

func (h *Hub) publish(ctx context.Context, env envelope) {
	if len(env.UserIDs) == 0 {
		return
	}
	if h.redis == nil {
		h.deliver(env)
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		h.log.Error("failed to marshal event", "type", env.Message.Type, "err", err)
		return
	}
	if err := h.redis.Publish(ctx, h.channel, data).Err(); err != nil {
		// still reach the users connected here
		h.log.Warn("redis publish failed, delivering locally", "err", err)
		h.deliver(env)
	}
}

func (h *Hub) subscribe(ctx context.Context) {
	sub := h.redis.Subscribe(ctx, h.channel)
	defer sub.Close()

	h.log.Info("✅ WebSocket hub subscribed to redis", "channel", h.channel)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.Warn("dropping malformed event", "err", err)
				continue
			}
			h.deliver(env)
		}
	}
}

// deliver writes env to the matching clients connected to this instance
func (h *Hub) deliver(env envelope) {
	data, err := json.Marshal(env.Message)
	if err != nil {
		h.log.Error("failed to marshal message", "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range env.UserIDs {
		if userID == env.Exclude {
			continue
		}
		if client, ok := h.Clients[userID]; ok {
			if !client.trySend(data) {
				h.log.Warn("failed to send message to client", "userId", userID)
			}
		}
	}
}

// BroadcastToRoom relays message to the members of a chat room the sender belongs to
func (h *Hub) BroadcastToRoom(ctx context.Context, roomID, senderID string, message WSMessage) error {
	if h.roomMembers == nil {
		return nil
	}
	members, err := h.roomMembers(ctx, roomID, senderID)
	if err != nil {
		return err
	}
	h.publish(ctx, envelope{UserIDs: members, Exclude: senderID, Message: message})
	return nil
}

// IsUserOnline checks if a user is currently connected to this instance
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.Clients[userID]
	return ok
}

// GetOnlineCount returns the number of currently connected clients
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.Clients)
}
