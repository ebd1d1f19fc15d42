package handlers

import (
	"squadmatch/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SendMessageRequest represents send message request body
type SendMessageRequest struct {
	Message string `json:"message"`
}

// GetChats lists the caller's chat rooms
func (h *Handler) GetChats(c *fiber.Ctx) error {
	rooms, err := h.svc.Chats.UserChatRooms(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, rooms)
}

// GetChat returns one chat room the caller belongs to
func (h *Handler) GetChat(c *fiber.Ctx) error {
	room, err := h.svc.Chats.RoomForMember(c.UserContext(), c.Params("chatId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, room)
}

// GetMessages returns the latest messages of a chat, oldest first
func (h *Handler) GetMessages(c *fiber.Ctx) error {
	room, err := h.svc.Chats.RoomForMember(c.UserContext(), c.Params("chatId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}

	messages, err := h.svc.Chats.Messages(c.UserContext(), room.ID, c.QueryInt("limit", 0))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, messages)
}

// SendMessage posts a message to a chat
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	msg, err := h.svc.Chats.SendMessage(c.UserContext(), c.Params("chatId"), middleware.GetIdentity(c), req.Message)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusCreated, msg)
}
