package service

import (
	"context"
	"errors"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"
)

type LikeService struct {
	base
	chats *ChatService
}

type LikeResult struct {
	Liked   bool   `json:"liked"`
	Matched bool   `json:"matched"`
	MatchID string `json:"matchId,omitempty"`
}

// MatchCreatedPayload is pushed to both groups when they match
type MatchCreatedPayload struct {
	Match      models.Match `json:"match"`
	ChatRoomID string       `json:"chatRoomId,omitempty"`
}

// Like records that from likes to. When to already liked from, the pair is
// matched and a chat room is provisioned. A failed provisioning is logged and
// does not undo the match; EnsureChatRoom repairs it later.
func (s *LikeService) Like(ctx context.Context, from, to string) (*LikeResult, error) {
	if from == to {
		return nil, apperrors.ErrSelfLike
	}
	if _, err := s.store.Groups.GetGroup(ctx, to); err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, "load group")
	}

	like := &models.Like{
		ID:          newID(),
		FromGroupID: from,
		ToGroupID:   to,
		CreatedAt:   s.timestamp(),
	}
	if err := s.store.Likes.CreateLike(ctx, like); err != nil {
		return nil, storeErr(err, nil, "like group")
	}

	reverse, err := s.store.Likes.HasLike(ctx, to, from)
	if err != nil {
		return nil, storeErr(err, nil, "check match")
	}
	if !reverse {
		return &LikeResult{Liked: true}, nil
	}

	// the group that liked first is side 1
	match := &models.Match{
		ID:        newID(),
		GroupID1:  to,
		GroupID2:  from,
		MatchedAt: s.timestamp(),
	}
	created, err := s.store.Matches.CreateMatch(ctx, match)
	if err != nil {
		return nil, storeErr(err, nil, "create match")
	}
	if !created {
		return &LikeResult{Liked: true, Matched: true, MatchID: match.ID}, nil
	}

	s.log.Info("match created", "matchId", match.ID, "groupId1", match.GroupID1, "groupId2", match.GroupID2)

	room, err := s.chats.provision(ctx, match.ID, match.GroupID1, match.GroupID2)
	if err != nil {
		s.log.Error("failed to create chat room for match", "matchId", match.ID, "err", err)
	} else {
		match.ChatID = room.ID
		s.notify.Notify(ctx, room.MemberIDs, EventMatchCreated, MatchCreatedPayload{Match: *match, ChatRoomID: room.ID})
	}

	return &LikeResult{Liked: true, Matched: true, MatchID: match.ID}, nil
}

func (s *LikeService) HasLiked(ctx context.Context, from, to string) (bool, error) {
	liked, err := s.store.Likes.HasLike(ctx, from, to)
	return liked, storeErr(err, nil, "check like")
}

// LikedGroups returns the groups from has liked
func (s *LikeService) LikedGroups(ctx context.Context, from string) ([]string, error) {
	ids, err := s.store.Likes.ListLikedBy(ctx, from)
	return ids, storeErr(err, nil, "list likes")
}

// GroupsWhoLiked returns the groups that liked to
func (s *LikeService) GroupsWhoLiked(ctx context.Context, to string) ([]string, error) {
	ids, err := s.store.Likes.ListLikersOf(ctx, to)
	return ids, storeErr(err, nil, "list likes")
}

func (s *LikeService) GroupMatches(ctx context.Context, groupID string) ([]models.Match, error) {
	matches, err := s.store.Matches.ListMatchesForGroup(ctx, groupID)
	return matches, storeErr(err, nil, "list matches")
}

func (s *LikeService) AreMatched(ctx context.Context, a, b string) (bool, error) {
	_, err := s.store.Matches.FindMatch(ctx, a, b)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, nil, "check match")
	}
	return true, nil
}

func (s *LikeService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	match, err := s.store.Matches.GetMatch(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrMatchNotFound, "load match")
	}
	return match, nil
}

// ExploreCandidates lists active groups groupID can still like on behalf of
// userID: not itself, not already liked or matched, and not one the user
// created or belongs to.
func (s *LikeService) ExploreCandidates(ctx context.Context, userID, groupID string) ([]models.Group, error) {
	groups, err := s.store.Groups.ListActiveGroups(ctx)
	if err != nil {
		return nil, storeErr(err, nil, "list groups")
	}
	liked, err := s.store.Likes.ListLikedBy(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, nil, "list likes")
	}
	matches, err := s.store.Matches.ListMatchesForGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, nil, "list matches")
	}

	exclude := map[string]bool{groupID: true}
	for _, id := range liked {
		exclude[id] = true
	}
	for _, m := range matches {
		exclude[m.Other(groupID)] = true
	}

	out := []models.Group{}
	for _, g := range groups {
		if exclude[g.ID] || g.CreatedBy == userID || g.HasMember(userID) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// PendingAdmirers lists active groups that liked groupID and are not matched with it yet
func (s *LikeService) PendingAdmirers(ctx context.Context, groupID string) ([]models.Group, error) {
	likers, err := s.store.Likes.ListLikersOf(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, nil, "list likes")
	}
	matches, err := s.store.Matches.ListMatchesForGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, nil, "list matches")
	}
	matched := make(map[string]bool, len(matches))
	for _, m := range matches {
		matched[m.Other(groupID)] = true
	}

	out := []models.Group{}
	for _, id := range likers {
		if matched[id] {
			continue
		}
		g, err := s.store.Groups.GetGroup(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storeErr(err, nil, "load group")
		}
		if g.IsActive {
			out = append(out, *g)
		}
	}
	return out, nil
}
