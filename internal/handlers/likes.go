package handlers

import (
	"squadmatch/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// LikeRequest represents like request body
type LikeRequest struct {
	ToGroupID string `json:"toGroupId"`
}

// LikeGroup records that the caller's group likes another group
func (h *Handler) LikeGroup(c *fiber.Ctx) error {
	var req LikeRequest
	if err := c.BodyParser(&req); err != nil || req.ToGroupID == "" {
		return failure(c, fiber.StatusBadRequest, "toGroupId is required")
	}

	from, err := h.svc.Groups.RequireMember(c.UserContext(), c.Params("groupId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}

	result, err := h.svc.Likes.Like(c.UserContext(), from.ID, req.ToGroupID)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusCreated, result)
}

// GetLikedGroups lists the groups a group has liked
func (h *Handler) GetLikedGroups(c *fiber.Ctx) error {
	group, err := h.svc.Groups.RequireMember(c.UserContext(), c.Params("groupId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	ids, err := h.svc.Likes.LikedGroups(c.UserContext(), group.ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, ids)
}

// GetAdmirers lists groups that liked this group and are waiting for a like back
func (h *Handler) GetAdmirers(c *fiber.Ctx) error {
	group, err := h.svc.Groups.RequireMember(c.UserContext(), c.Params("groupId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	groups, err := h.svc.Likes.PendingAdmirers(c.UserContext(), group.ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, groups)
}

// ExploreGroups lists groups this group can still like
func (h *Handler) ExploreGroups(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	group, err := h.svc.Groups.RequireMember(c.UserContext(), c.Params("groupId"), userID)
	if err != nil {
		return h.respondError(c, err)
	}
	groups, err := h.svc.Likes.ExploreCandidates(c.UserContext(), userID, group.ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, groups)
}

// GetGroupMatches lists a group's matches
func (h *Handler) GetGroupMatches(c *fiber.Ctx) error {
	group, err := h.svc.Groups.RequireMember(c.UserContext(), c.Params("groupId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	matches, err := h.svc.Likes.GroupMatches(c.UserContext(), group.ID)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, matches)
}

// GetMatchChat returns the match's chat room, provisioning it if missing
func (h *Handler) GetMatchChat(c *fiber.Ctx) error {
	room, err := h.svc.Chats.MatchChatForMember(c.UserContext(), c.Params("matchId"), middleware.GetUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, room)
}
