package handlers

import (
	"strings"

	"squadmatch/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest carries the caller's new display fields. A missing
// photoURL keeps the identity provider's picture; an empty one removes it.
type UpdateProfileRequest struct {
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

// GetMe returns the authenticated identity
func (h *Handler) GetMe(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, middleware.GetIdentity(c))
}

// UpdateProfile pushes the caller's name and photo into every group they belong to
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	identity := middleware.GetIdentity(c)
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		identity.Name = name
	}
	if req.PhotoURL != nil {
		identity.PhotoURL = strings.TrimSpace(*req.PhotoURL)
	}

	ctx := c.UserContext()
	if err := h.svc.Profiles.SyncUserProfileToGroups(ctx, identity.UserID, identity.DisplayName("User"), identity.PhotoURL); err != nil {
		return h.respondError(c, err)
	}
	if err := h.svc.Profiles.EnsureCreatorInAllGroups(ctx, identity); err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusOK, identity)
}
