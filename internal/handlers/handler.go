package handlers

import (
	"errors"
	"log/slog"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/service"
	"squadmatch/server/internal/storage"
	ws "squadmatch/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the HTTP API on top of the services
type Handler struct {
	svc       *service.Services
	objects   storage.ObjectStore
	hub       *ws.Hub
	maxUpload int64
	log       *slog.Logger
}

func New(svc *service.Services, objects storage.ObjectStore, hub *ws.Hub, maxUpload int64, log *slog.Logger) *Handler {
	return &Handler{svc: svc, objects: objects, hub: hub, maxUpload: maxUpload, log: log}
}

func success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return fiber.StatusBadRequest
	case apperrors.CodeNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeAlreadyExists, apperrors.CodeFailedPrecondition:
		return fiber.StatusConflict
	case apperrors.CodePermissionDenied:
		return fiber.StatusForbidden
	case apperrors.CodeUnauthenticated:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError turns a service error into the JSON envelope
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return failure(c, fe.Code, fe.Message)
	}

	status := statusFor(apperrors.CodeOf(err))
	if status == fiber.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return failure(c, status, apperrors.MessageOf(err, "Internal server error"))
}

func invalidBody(c *fiber.Ctx) error {
	return failure(c, fiber.StatusBadRequest, "Invalid request body")
}
