package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"squadmatch/server/internal/middleware"
	"squadmatch/server/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const photoField = "photo"

// openPhoto validates the uploaded photo and opens it for reading
func (h *Handler) openPhoto(c *fiber.Ctx) (multipart.File, error) {
	file, err := c.FormFile(photoField)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
	}

	if h.maxUpload > 0 && file.Size > h.maxUpload {
		return nil, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("File size exceeds limit of %.0fMB (uploaded: %.2fMB)",
				float64(h.maxUpload)/(1024*1024), float64(file.Size)/(1024*1024)))
	}

	if !storage.IsImage(file.Filename) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid image format. Allowed: jpg, jpeg, png, gif, webp")
	}

	f, err := file.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to read upload")
	}
	return f, nil
}

// UploadGroupPhoto replaces a group's photo (creator only)
func (h *Handler) UploadGroupPhoto(c *fiber.Ctx) error {
	f, err := h.openPhoto(c)
	if err != nil {
		return h.respondError(c, err)
	}
	defer f.Close()

	group, err := h.svc.Photos.UploadGroupPhoto(c.UserContext(), middleware.GetIdentity(c), c.Params("groupId"), f)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusCreated, group)
}

// UploadMemberPhoto stores the caller's photo and updates their group rows
func (h *Handler) UploadMemberPhoto(c *fiber.Ctx) error {
	f, err := h.openPhoto(c)
	if err != nil {
		return h.respondError(c, err)
	}
	defer f.Close()

	url, err := h.svc.Photos.UploadMemberPhoto(c.UserContext(), middleware.GetIdentity(c), f)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, fiber.StatusCreated, fiber.Map{"url": url})
}

// GetFile serves uploaded files
func (h *Handler) GetFile(c *fiber.Ctx) error {
	path := c.Params("*")
	if !strings.HasPrefix(path, "groups/") && !strings.HasPrefix(path, "members/") {
		return failure(c, fiber.StatusBadRequest, "Invalid file path")
	}

	rc, err := h.objects.Open(c.UserContext(), path)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return failure(c, fiber.StatusNotFound, "File not found")
	case errors.Is(err, storage.ErrInvalidPath):
		return failure(c, fiber.StatusBadRequest, "Invalid file path")
	case err != nil:
		h.log.Error("failed to open upload", "path", path, "err", err)
		return failure(c, fiber.StatusInternalServerError, "Failed to open file")
	}

	c.Set(fiber.HeaderContentType, storage.ContentType(path))
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendStream(rc)
}
