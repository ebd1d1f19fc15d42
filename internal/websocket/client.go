package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client represents a WebSocket client connection
type Client struct {
	ID   string // User ID
	Name string // Display name used in typing events
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new WebSocket client
func NewClient(userID, name string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   userID,
		Name: name,
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, sendBuffer),
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// trySend queues data without blocking; false when the buffer is full or closed
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Detach(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read error", "userId", c.ID, "err", err)
			}
			break
		}

		// Parse incoming message
		var incoming IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.sendError("invalid_message", "Message must be JSON")
			continue
		}

		c.handleIncomingMessage(ctx, incoming)
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.log.Warn("websocket write error", "userId", c.ID, "err", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage processes different types of incoming messages
func (c *Client) handleIncomingMessage(ctx context.Context, msg IncomingMessage) {
	switch msg.Type {
	case EventTypingStart, EventTypingStop:
		c.handleTyping(ctx, msg.Type, msg.Payload)
	default:
		c.sendError("unknown_event", "Unknown message type: "+string(msg.Type))
	}
}

// handleTyping relays a typing indicator to the other members of the chat
func (c *Client) handleTyping(ctx context.Context, event EventType, payload map[string]interface{}) {
	chatID, _ := payload["chatId"].(string)
	if chatID == "" {
		c.sendError("invalid_message", "chatId is required")
		return
	}

	message := WSMessage{
		Type: event,
		Payload: TypingPayload{
			UserID:   c.ID,
			ChatID:   chatID,
			UserName: c.Name,
		},
		Timestamp: time.Now(),
	}

	if err := c.Hub.BroadcastToRoom(ctx, chatID, c.ID, message); err != nil {
		c.sendError("forbidden", "You are not a member of this chat")
	}
}

func (c *Client) sendError(code, message string) {
	data, err := json.Marshal(WSMessage{
		Type:      EventError,
		Payload:   ErrorPayload{Code: code, Message: message},
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	c.trySend(data)
}
