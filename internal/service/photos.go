package service

import (
	"context"
	"errors"
	"io"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/storage"
	"squadmatch/server/internal/utils"
)

type PhotoService struct {
	base
	objects  storage.ObjectStore
	profiles *ProfileService
}

func (s *PhotoService) put(ctx context.Context, path string, r io.Reader) (string, error) {
	url, err := s.objects.Put(ctx, path, r)
	switch {
	case err == nil:
		return url, nil
	case errors.Is(err, storage.ErrTooLarge):
		return "", apperrors.InvalidArg("File size exceeds the upload limit")
	default:
		return "", apperrors.Internal("Failed to upload photo", err)
	}
}

// UploadGroupPhoto stores a new group photo and points the group at it
func (s *PhotoService) UploadGroupPhoto(ctx context.Context, actor models.Identity, groupID string, r io.Reader) (*models.Group, error) {
	group, err := s.store.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, "load group")
	}
	if group.CreatedBy != actor.UserID {
		return nil, apperrors.ErrNotGroupCreator
	}

	url, err := s.put(ctx, utils.GroupPhotoPath(groupID, s.now()), r)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Groups.UpdateGroup(ctx, groupID, models.GroupPatch{PhotoURL: &url}, s.timestamp())
	if err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, "update group")
	}
	return updated, nil
}

// UploadMemberPhoto stores the caller's photo and fans it out to their groups
func (s *PhotoService) UploadMemberPhoto(ctx context.Context, identity models.Identity, r io.Reader) (string, error) {
	url, err := s.put(ctx, utils.MemberPhotoPath(identity.UserID, s.now()), r)
	if err != nil {
		return "", err
	}
	if err := s.profiles.UpdateMemberPhotoInGroups(ctx, identity.UserID, url, identity.Name); err != nil {
		return "", err
	}
	return url, nil
}
