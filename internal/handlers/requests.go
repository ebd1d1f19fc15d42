package handlers

import (
	"squadmatch/server/internal/middleware"
	"squadmatch/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateJoinRequest asks to join a group
func (h *Handler) CreateJoinRequest(c *fiber.Ctx) error {
	req, err := h.svc.JoinRequests.CreateJoinRequest(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusCreated, req)
}

// GetGroupRequests lists a group's join requests for its creator
func (h *Handler) GetGroupRequests(c *fiber.Ctx) error {
	status := models.JoinRequestStatus(c.Query("status"))
	reqs, err := h.svc.JoinRequests.GroupRequests(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId"), status)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, reqs)
}

// GetMyRequests lists the caller's own join requests
func (h *Handler) GetMyRequests(c *fiber.Ctx) error {
	status := models.JoinRequestStatus(c.Query("status"))
	reqs, err := h.svc.JoinRequests.UserRequests(c.UserContext(), middleware.GetUserID(c), status)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, reqs)
}

func (h *Handler) ApproveRequest(c *fiber.Ctx) error {
	req, err := h.svc.JoinRequests.Approve(c.UserContext(), middleware.GetIdentity(c), c.Params("requestId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, req)
}

func (h *Handler) RejectRequest(c *fiber.Ctx) error {
	req, err := h.svc.JoinRequests.Reject(c.UserContext(), middleware.GetIdentity(c), c.Params("requestId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, req)
}

func (h *Handler) CancelRequest(c *fiber.Ctx) error {
	req, err := h.svc.JoinRequests.Cancel(c.UserContext(), middleware.GetIdentity(c), c.Params("requestId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, req)
}
