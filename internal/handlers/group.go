package handlers

import (
	"squadmatch/server/internal/middleware"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AddMemberRequest represents add member request body
type AddMemberRequest struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// CreateGroup creates a new group owned by the caller
func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var req service.CreateGroupInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	group, err := h.svc.Groups.CreateGroup(c.UserContext(), middleware.GetIdentity(c), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusCreated, group)
}

// GetGroups lists groups; scope is all (default), created or member
func (h *Handler) GetGroups(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var (
		groups []models.Group
		err    error
	)
	switch c.Query("scope", "all") {
	case "all":
		groups, err = h.svc.Groups.ListActiveGroups(c.UserContext())
	case "created":
		groups, err = h.svc.Groups.ListGroupsByCreator(c.UserContext(), userID)
	case "member":
		groups, err = h.svc.Groups.ListGroupsByMember(c.UserContext(), userID)
	default:
		return failure(c, fiber.StatusBadRequest, "Invalid scope. Must be all, created or member")
	}
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, groups)
}

// BrowseGroups lists groups the caller can ask to join
func (h *Handler) BrowseGroups(c *fiber.Ctx) error {
	entries, err := h.svc.Groups.BrowseGroups(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, entries)
}

// GetGroupDetails returns a single group
func (h *Handler) GetGroupDetails(c *fiber.Ctx) error {
	group, err := h.svc.Groups.GetGroup(c.UserContext(), c.Params("groupId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, group)
}

// UpdateGroup applies a partial update (creator only)
func (h *Handler) UpdateGroup(c *fiber.Ctx) error {
	var patch models.GroupPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c)
	}

	group, err := h.svc.Groups.UpdateGroup(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId"), patch)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, group)
}

// DeleteGroup deactivates a group (creator only)
func (h *Handler) DeleteGroup(c *fiber.Ctx) error {
	if err := h.svc.Groups.DeactivateGroup(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId")); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Group deactivated successfully",
	})
}

// AddGroupMember lets the creator add a member directly
func (h *Handler) AddGroupMember(c *fiber.Ctx) error {
	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	member := models.GroupMember{UserID: req.UserID, Name: req.Name, PhotoURL: req.PhotoURL, Bio: req.Bio}
	group, err := h.svc.Groups.InviteMember(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId"), member)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusCreated, group)
}

// RemoveGroupMember removes a member; members may remove themselves to leave
func (h *Handler) RemoveGroupMember(c *fiber.Ctx) error {
	err := h.svc.Groups.RemoveMember(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId"), c.Params("userId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Member removed successfully",
	})
}

// RepairGroup re-asserts the creator row in the member list
func (h *Handler) RepairGroup(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)
	group, err := h.svc.Groups.GetGroup(c.UserContext(), c.Params("groupId"))
	if err != nil {
		return h.respondError(c, err)
	}
	if group.CreatedBy != identity.UserID {
		return failure(c, fiber.StatusForbidden, "Only the group creator can do this")
	}

	if err := h.svc.Profiles.EnsureCreatorInGroupMembers(c.UserContext(), group.ID, identity); err != nil {
		return h.respondError(c, err)
	}
	return h.GetGroupDetails(c)
}

// GetJoinPreview resolves a join link into the group it points to
func (h *Handler) GetJoinPreview(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	group, err := h.svc.Groups.GetGroup(c.UserContext(), c.Params("groupId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"group":    group,
		"isMember": group.HasMember(userID),
	})
}

// JoinGroup adds the caller through a join link
func (h *Handler) JoinGroup(c *fiber.Ctx) error {
	group, err := h.svc.Groups.JoinGroupByLink(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, group)
}

// ShareGroup returns the group's join link
func (h *Handler) ShareGroup(c *fiber.Ctx) error {
	group, err := h.svc.Groups.RequireMember(c.UserContext(), c.Params("groupId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"groupId": group.ID,
		"link":    h.svc.Groups.JoinLink(group.ID),
	})
}
