package handlers

import (
	"context"

	"squadmatch/server/internal/middleware"
	ws "squadmatch/server/internal/websocket"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func (h *Handler) WebSocketUpgrade(c *fiber.Ctx) error {
	// Check if this is a WebSocket upgrade request
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("wsName", middleware.GetIdentity(c).DisplayName("User"))
		return c.Next()
	}

	return failure(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
}

// WebSocketHandler handles WebSocket connections
func (h *Handler) WebSocketHandler(c *websocket.Conn) {
	// Get user info from context (set by auth middleware)
	userID, _ := c.Locals("userID").(string)
	name, _ := c.Locals("wsName").(string)

	client := ws.NewClient(userID, name, c, h.hub)
	if !h.hub.Attach(client) {
		// server is shutting down
		c.Close()
		return
	}

	// Start read and write pumps in separate goroutines
	go client.WritePump()
	client.ReadPump(context.Background()) // This blocks until connection closes
}

// GetWebSocketStats returns the connection count and whether the caller is connected
func (h *Handler) GetWebSocketStats(c *fiber.Ctx) error {
	if h.hub == nil {
		return failure(c, fiber.StatusServiceUnavailable, "WebSocket hub not initialized")
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"onlineUsers": h.hub.GetOnlineCount(),
		"connected":   h.hub.IsUserOnline(middleware.GetUserID(c)),
	})
}
