package service

import (
	"context"
	"errors"
	"strings"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"
	"squadmatch/server/internal/utils"
)

const defaultMemberName = "User"

type GroupService struct {
	base
	baseURL string
}

type CreateGroupInput struct {
	Name     string               `json:"name"`
	Bio      string               `json:"bio"`
	PhotoURL string               `json:"photoURL,omitempty"`
	Members  []models.GroupMember `json:"members"`
}

// BrowseEntry is a joinable group plus whether the caller already asked to join
type BrowseEntry struct {
	Group             models.Group `json:"group"`
	HasPendingRequest bool         `json:"hasPendingRequest"`
}

// sanitizeMember trims every field and falls back to a placeholder name
func sanitizeMember(m models.GroupMember) models.GroupMember {
	clean := models.GroupMember{
		UserID:   strings.TrimSpace(m.UserID),
		Name:     strings.TrimSpace(m.Name),
		PhotoURL: strings.TrimSpace(m.PhotoURL),
		Bio:      strings.TrimSpace(m.Bio),
	}
	if clean.Name == "" {
		clean.Name = defaultMemberName
	}
	return clean
}

// sanitizeMembers drops rows without a user id and repeated user ids
func sanitizeMembers(members []models.GroupMember) []models.GroupMember {
	seen := make(map[string]bool, len(members))
	out := make([]models.GroupMember, 0, len(members))
	for _, m := range members {
		clean := sanitizeMember(m)
		if clean.UserID == "" || seen[clean.UserID] {
			continue
		}
		seen[clean.UserID] = true
		out = append(out, clean)
	}
	return out
}

func (s *GroupService) CreateGroup(ctx context.Context, creator models.Identity, in CreateGroupInput) (*models.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.ErrGroupNameRequired
	}

	members := sanitizeMembers(in.Members)
	hasCreator := false
	for _, m := range members {
		if m.UserID == creator.UserID {
			hasCreator = true
			break
		}
	}
	if !hasCreator {
		members = append([]models.GroupMember{creator.AsMember(defaultMemberName)}, members...)
	}

	now := s.timestamp()
	group := &models.Group{
		ID:        newID(),
		Name:      name,
		Bio:       strings.TrimSpace(in.Bio),
		PhotoURL:  strings.TrimSpace(in.PhotoURL),
		CreatedBy: creator.UserID,
		Members:   members,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Groups.CreateGroup(ctx, group); err != nil {
		return nil, storeErr(err, nil, "create group")
	}

	s.log.Info("group created", "groupId", group.ID, "createdBy", creator.UserID, "members", len(members))
	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.store.Groups.GetGroup(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, "get group")
	}
	return group, nil
}

func (s *GroupService) ListActiveGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.store.Groups.ListActiveGroups(ctx)
	return groups, storeErr(err, nil, "list groups")
}

func (s *GroupService) ListGroupsByCreator(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.store.Groups.ListGroupsByCreator(ctx, userID)
	return groups, storeErr(err, nil, "list groups")
}

func (s *GroupService) ListGroupsByMember(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.store.Groups.ListGroupsByMember(ctx, userID)
	return groups, storeErr(err, nil, "list groups")
}

// BrowseGroups lists active groups userID could ask to join
func (s *GroupService) BrowseGroups(ctx context.Context, userID string) ([]BrowseEntry, error) {
	groups, err := s.ListActiveGroups(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.JoinRequests.ListByUser(ctx, userID, models.JoinRequestPending)
	if err != nil {
		return nil, storeErr(err, nil, "list join requests")
	}
	pendingFor := make(map[string]bool, len(pending))
	for _, r := range pending {
		pendingFor[r.GroupID] = true
	}

	entries := []BrowseEntry{}
	for _, g := range groups {
		if g.CreatedBy == userID || g.HasMember(userID) {
			continue
		}
		entries = append(entries, BrowseEntry{Group: g, HasPendingRequest: pendingFor[g.ID]})
	}
	return entries, nil
}

// RequireMember returns the group when userID belongs to it
func (s *GroupService) RequireMember(ctx context.Context, groupID, userID string) (*models.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) && group.CreatedBy != userID {
		return nil, apperrors.ErrNotGroupMember
	}
	return group, nil
}

func (s *GroupService) requireCreator(ctx context.Context, groupID, userID string) (*models.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != userID {
		return nil, apperrors.ErrNotGroupCreator
	}
	return group, nil
}

func (s *GroupService) UpdateGroup(ctx context.Context, actor models.Identity, id string, patch models.GroupPatch) (*models.Group, error) {
	group, err := s.requireCreator(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.ErrGroupNameRequired
		}
		patch.Name = &name
	}
	if patch.Bio != nil {
		bio := strings.TrimSpace(*patch.Bio)
		patch.Bio = &bio
	}
	if patch.PhotoURL != nil {
		photo := strings.TrimSpace(*patch.PhotoURL)
		patch.PhotoURL = &photo
	}
	if patch.Empty() {
		return group, nil
	}

	updated, err := s.store.Groups.UpdateGroup(ctx, id, patch, s.timestamp())
	if err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, "update group")
	}
	return updated, nil
}

func (s *GroupService) DeactivateGroup(ctx context.Context, actor models.Identity, id string) error {
	if _, err := s.requireCreator(ctx, id, actor.UserID); err != nil {
		return err
	}
	if err := s.store.Groups.SetActive(ctx, id, false, s.timestamp()); err != nil {
		return storeErr(err, apperrors.ErrGroupNotFound, "deactivate group")
	}
	s.log.Info("group deactivated", "groupId", id)
	return nil
}

// AddMemberToGroup appends member unless the user is already listed
func (s *GroupService) AddMemberToGroup(ctx context.Context, groupID string, member models.GroupMember) error {
	clean := sanitizeMember(member)
	if clean.UserID == "" {
		return apperrors.InvalidArg("Member userId is required")
	}

	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HasMember(clean.UserID) {
		return apperrors.ErrAlreadyMember
	}

	err = s.store.Groups.AddMember(ctx, groupID, clean, s.timestamp())
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.ErrAlreadyMember
	}
	return storeErr(err, apperrors.ErrGroupNotFound, "add member")
}

// InviteMember lets the creator add a member directly
func (s *GroupService) InviteMember(ctx context.Context, actor models.Identity, groupID string, member models.GroupMember) (*models.Group, error) {
	if _, err := s.requireCreator(ctx, groupID, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.AddMemberToGroup(ctx, groupID, member); err != nil {
		return nil, err
	}
	return s.GetGroup(ctx, groupID)
}

// RemoveMember removes userID. The creator may remove anyone else and any
// member may remove themself; the creator cannot leave.
func (s *GroupService) RemoveMember(ctx context.Context, actor models.Identity, groupID, userID string) error {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if userID == group.CreatedBy {
		return apperrors.ErrCreatorCannotLeave
	}
	if actor.UserID != group.CreatedBy && actor.UserID != userID {
		return apperrors.ErrNotGroupCreator
	}
	if !group.HasMember(userID) {
		return apperrors.ErrMemberNotFound
	}

	err = s.store.Groups.RemoveMember(ctx, groupID, userID, s.timestamp())
	return storeErr(err, apperrors.ErrMemberNotFound, "remove member")
}

// JoinGroupByLink adds the caller to an active group reached through its share link
func (s *GroupService) JoinGroupByLink(ctx context.Context, identity models.Identity, groupID string) (*models.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, apperrors.ErrGroupInactive
	}
	if err := s.AddMemberToGroup(ctx, groupID, identity.AsMember(defaultMemberName)); err != nil {
		return nil, err
	}
	s.log.Info("member joined by link", "groupId", groupID, "userId", identity.UserID)
	return s.GetGroup(ctx, groupID)
}

// JoinLink returns the shareable join URL for groupID
func (s *GroupService) JoinLink(groupID string) string {
	return utils.JoinLink(s.baseURL, groupID)
}
