package repository

import (
	"context"
	"errors"
	"time"

	"squadmatch/server/internal/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a uniqueness or conditional write fails.
	ErrConflict = errors.New("record conflict")
)

type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListActiveGroups(ctx context.Context) ([]models.Group, error)
	ListGroupsByCreator(ctx context.Context, userID string) ([]models.Group, error)
	// ListGroupsByMember returns active groups whose member list contains userID.
	ListGroupsByMember(ctx context.Context, userID string) ([]models.Group, error)
	UpdateGroup(ctx context.Context, id string, patch models.GroupPatch, at time.Time) (*models.Group, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) error

	// AddMember appends a member. ErrConflict if the user is already present.
	AddMember(ctx context.Context, groupID string, member models.GroupMember, at time.Time) error
	RemoveMember(ctx context.Context, groupID, userID string, at time.Time) error
	// ReplaceMembers rewrites the whole ordered member list.
	ReplaceMembers(ctx context.Context, groupID string, members []models.GroupMember, at time.Time) error
}

type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	HasLike(ctx context.Context, fromGroupID, toGroupID string) (bool, error)
	// ListLikedBy returns the distinct groups fromGroupID has liked.
	ListLikedBy(ctx context.Context, fromGroupID string) ([]string, error)
	// ListLikersOf returns the distinct groups that liked toGroupID.
	ListLikersOf(ctx context.Context, toGroupID string) ([]string, error)
}

type MatchRepository interface {
	// CreateMatch inserts m unless the unordered pair is already matched, in
	// which case m is overwritten with the stored match and created is false.
	CreateMatch(ctx context.Context, m *models.Match) (created bool, err error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	FindMatch(ctx context.Context, groupA, groupB string) (*models.Match, error)
	ListMatchesForGroup(ctx context.Context, groupID string) ([]models.Match, error)
	SetChatID(ctx context.Context, matchID, chatID string) error
}

type ChatRepository interface {
	// CreateChatRoom returns ErrConflict when the match already has a room.
	CreateChatRoom(ctx context.Context, room *models.ChatRoom) error
	GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error)
	GetChatRoomByMatch(ctx context.Context, matchID string) (*models.ChatRoom, error)
	ListChatRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)

	// CreateMessage stores msg and updates the room's last message fields.
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	// ListMessages returns the newest limit messages, oldest first.
	ListMessages(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error)
}

type JoinRequestRepository interface {
	// CreateJoinRequest returns ErrConflict if a pending request for the same
	// group and user exists.
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (*models.JoinRequest, error)
	// ListByGroup and ListByUser return newest first; an empty status matches all.
	ListByGroup(ctx context.Context, groupID string, status models.JoinRequestStatus) ([]models.JoinRequest, error)
	ListByUser(ctx context.Context, userID string, status models.JoinRequestStatus) ([]models.JoinRequest, error)
	HasPending(ctx context.Context, groupID, userID string) (bool, error)
	// TransitionStatus moves a request from one status to another and fails
	// with ErrConflict if the stored status is not from.
	TransitionStatus(ctx context.Context, id string, from, to models.JoinRequestStatus, at time.Time) error
}

// Store bundles every repository the services depend on
type Store struct {
	Groups       GroupRepository
	Likes        LikeRepository
	Matches      MatchRepository
	Chats        ChatRepository
	JoinRequests JoinRequestRepository
}
