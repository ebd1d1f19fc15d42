package service

import (
	"context"
	"errors"
	"strings"

	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"

	"golang.org/x/sync/errgroup"
)

// fanOutLimit bounds concurrent member list rewrites
const fanOutLimit = 8

type ProfileService struct {
	base
}

// SyncUserProfileToGroups sets the user's name and photo in every active group
// they belong to. An empty photoURL removes the photo. Bio is kept.
func (s *ProfileService) SyncUserProfileToGroups(ctx context.Context, userID, displayName, photoURL string) error {
	name := strings.TrimSpace(displayName)
	photo := strings.TrimSpace(photoURL)
	return s.rewriteMemberships(ctx, userID, func(m models.GroupMember) models.GroupMember {
		m.Name = name
		m.PhotoURL = photo
		return m
	})
}

// UpdateMemberPhotoInGroups replaces the user's photo and, when given, name.
// Empty arguments keep the stored values.
func (s *ProfileService) UpdateMemberPhotoInGroups(ctx context.Context, userID, photoURL, displayName string) error {
	name := strings.TrimSpace(displayName)
	photo := strings.TrimSpace(photoURL)
	return s.rewriteMemberships(ctx, userID, func(m models.GroupMember) models.GroupMember {
		if name != "" {
			m.Name = name
		}
		if photo != "" {
			m.PhotoURL = photo
		}
		return m
	})
}

func (s *ProfileService) rewriteMemberships(ctx context.Context, userID string, update func(models.GroupMember) models.GroupMember) error {
	groups, err := s.store.Groups.ListGroupsByMember(ctx, userID)
	if err != nil {
		return storeErr(err, nil, "list groups")
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fanOutLimit)
	for i := range groups {
		group := &groups[i]
		idx := group.MemberIndex(userID)
		if idx < 0 {
			continue
		}
		eg.Go(func() error {
			members := cleanMembers(group.Members)
			members[idx] = sanitizeMember(update(members[idx]))
			return s.store.Groups.ReplaceMembers(egCtx, group.ID, members, s.timestamp())
		})
	}
	if err := eg.Wait(); err != nil {
		return storeErr(err, nil, "update group members")
	}

	s.log.Debug("profile fanned out", "userId", userID, "groups", len(groups))
	return nil
}

// cleanMembers sanitizes every row and keeps positions
func cleanMembers(members []models.GroupMember) []models.GroupMember {
	out := make([]models.GroupMember, len(members))
	for i, m := range members {
		out[i] = sanitizeMember(m)
	}
	return out
}

// EnsureCreatorInGroupMembers appends the creator to the group's member list,
// or refreshes their row when already present. Missing groups are ignored.
func (s *ProfileService) EnsureCreatorInGroupMembers(ctx context.Context, groupID string, creator models.Identity) error {
	group, err := s.store.Groups.GetGroup(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err, nil, "load group")
	}
	return s.ensureCreator(ctx, group, creator)
}

func (s *ProfileService) ensureCreator(ctx context.Context, group *models.Group, creator models.Identity) error {
	members := cleanMembers(group.Members)
	row := creator.AsMember(defaultMemberName)

	if idx := group.MemberIndex(creator.UserID); idx >= 0 {
		row.Bio = members[idx].Bio
		members[idx] = sanitizeMember(row)
	} else {
		members = append(members, sanitizeMember(row))
	}

	err := s.store.Groups.ReplaceMembers(ctx, group.ID, members, s.timestamp())
	return storeErr(err, nil, "update group members")
}

// EnsureCreatorInAllGroups repairs every group created by creator
func (s *ProfileService) EnsureCreatorInAllGroups(ctx context.Context, creator models.Identity) error {
	groups, err := s.store.Groups.ListGroupsByCreator(ctx, creator.UserID)
	if err != nil {
		return storeErr(err, nil, "list groups")
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fanOutLimit)
	for i := range groups {
		group := &groups[i]
		eg.Go(func() error {
			return s.ensureCreator(egCtx, group, creator)
		})
	}
	return eg.Wait()
}
