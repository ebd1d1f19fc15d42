package service

import (
	"context"
	"errors"
	"strings"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

type ChatService struct {
	base
}

// CreateChatRoom provisions the room for a match and links it back to the match
func (s *ChatService) CreateChatRoom(ctx context.Context, matchID, groupA, groupB string) (string, error) {
	room, err := s.provision(ctx, matchID, groupA, groupB)
	if err != nil {
		return "", err
	}
	return room.ID, nil
}

func (s *ChatService) provision(ctx context.Context, matchID, groupA, groupB string) (*models.ChatRoom, error) {
	var a, b *models.Group
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		a, err = s.store.Groups.GetGroup(egCtx, groupA)
		return err
	})
	eg.Go(func() error {
		var err error
		b, err = s.store.Groups.GetGroup(egCtx, groupB)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, storeErr(err, apperrors.ErrGroupsNotFound, "load groups")
	}

	room := &models.ChatRoom{
		ID:         newID(),
		MatchID:    matchID,
		GroupID1:   a.ID,
		GroupID2:   b.ID,
		Group1Name: a.Name,
		Group2Name: b.Name,
		MemberIDs:  unionIDs(a.MemberIDs(), b.MemberIDs()),
		CreatedAt:  s.timestamp(),
	}

	err := s.store.Chats.CreateChatRoom(ctx, room)
	if errors.Is(err, repository.ErrConflict) {
		existing, getErr := s.store.Chats.GetChatRoomByMatch(ctx, matchID)
		if getErr != nil {
			return nil, storeErr(getErr, apperrors.ErrChatRoomNotFound, "load chat room")
		}
		return existing, nil
	}
	if err != nil {
		return nil, storeErr(err, nil, "create chat room")
	}

	if err := s.store.Matches.SetChatID(ctx, matchID, room.ID); err != nil {
		s.log.Warn("failed to link chat room to match", "matchId", matchID, "chatRoomId", room.ID, "err", err)
	}

	s.log.Info("chat room created", "chatRoomId", room.ID, "matchId", matchID, "members", len(room.MemberIDs))
	return room, nil
}

// unionIDs keeps the first occurrence of every id, a's ids first
func unionIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// EnsureChatRoom returns the match's room, provisioning it when an earlier
// attempt failed
func (s *ChatService) EnsureChatRoom(ctx context.Context, matchID string) (*models.ChatRoom, error) {
	room, err := s.store.Chats.GetChatRoomByMatch(ctx, matchID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr(err, nil, "load chat room")
	}

	match, err := s.store.Matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrMatchNotFound, "load match")
	}
	s.log.Info("provisioning missing chat room", "matchId", matchID)
	return s.provision(ctx, match.ID, match.GroupID1, match.GroupID2)
}

// MatchChatForMember returns the match's room for userID, provisioning it
// only when userID belongs to one of the matched groups.
func (s *ChatService) MatchChatForMember(ctx context.Context, matchID, userID string) (*models.ChatRoom, error) {
	room, err := s.store.Chats.GetChatRoomByMatch(ctx, matchID)
	if err == nil {
		if !room.HasMember(userID) {
			return nil, apperrors.ErrNotChatMember
		}
		return room, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr(err, nil, "load chat room")
	}

	match, err := s.store.Matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrMatchNotFound, "load match")
	}
	member := false
	for _, groupID := range []string{match.GroupID1, match.GroupID2} {
		group, err := s.store.Groups.GetGroup(ctx, groupID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, storeErr(err, nil, "load group")
		}
		if err == nil && group.HasMember(userID) {
			member = true
			break
		}
	}
	if !member {
		return nil, apperrors.ErrNotChatMember
	}

	room, err = s.EnsureChatRoom(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, apperrors.ErrNotChatMember
	}
	return room, nil
}

func (s *ChatService) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	room, err := s.store.Chats.GetChatRoom(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrChatRoomNotFound, "load chat room")
	}
	return room, nil
}

func (s *ChatService) GetChatRoomByMatch(ctx context.Context, matchID string) (*models.ChatRoom, error) {
	room, err := s.store.Chats.GetChatRoomByMatch(ctx, matchID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrChatRoomNotFound, "load chat room")
	}
	return room, nil
}

// RoomForMember returns the room when userID is one of its members
func (s *ChatService) RoomForMember(ctx context.Context, roomID, userID string) (*models.ChatRoom, error) {
	room, err := s.GetChatRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, apperrors.ErrNotChatMember
	}
	return room, nil
}

// UserChatRooms lists rooms containing userID, most recently active first
func (s *ChatService) UserChatRooms(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	rooms, err := s.store.Chats.ListChatRoomsForUser(ctx, userID)
	return rooms, storeErr(err, nil, "list chat rooms")
}

func (s *ChatService) SendMessage(ctx context.Context, roomID string, sender models.Identity, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyMessage
	}

	room, err := s.RoomForMember(ctx, roomID, sender.UserID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ID:         newID(),
		ChatRoomID: room.ID,
		SenderID:   sender.UserID,
		SenderName: sender.DisplayName(defaultMemberName),
		Message:    text,
		CreatedAt:  s.timestamp(),
	}
	if err := s.store.Chats.CreateMessage(ctx, msg); err != nil {
		return nil, storeErr(err, apperrors.ErrChatRoomNotFound, "send message")
	}

	s.notify.Notify(ctx, room.MemberIDs, EventChatMessage, msg)
	return msg, nil
}

// Messages returns the latest limit messages oldest first
func (s *ChatService) Messages(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	switch {
	case limit <= 0:
		limit = DefaultMessageLimit
	case limit > MaxMessageLimit:
		limit = MaxMessageLimit
	}
	msgs, err := s.store.Chats.ListMessages(ctx, roomID, limit)
	return msgs, storeErr(err, nil, "list messages")
}
