package websocket

import "time"

// EventType represents different WebSocket event types
type EventType string

const (
	// Server pushed events
	EventChatMessage  EventType = "chat_message"
	EventMatchCreated EventType = "match_created"

	// Typing events, relayed between chat room members
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"

	// Error events
	EventError EventType = "error"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// TypingPayload represents typing indicator payload
type TypingPayload struct {
	UserID   string `json:"userId"`
	ChatID   string `json:"chatId"`
	UserName string `json:"userName"`
}

// ErrorPayload represents error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingMessage represents messages received from clients
type IncomingMessage struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// envelope is what travels over the Redis channel between instances
type envelope struct {
	UserIDs []string  `json:"userIds"`
	Exclude string    `json:"exclude,omitempty"`
	Message WSMessage `json:"message"`
}
