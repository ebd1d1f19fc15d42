// Package memory is an in-process implementation of the repositories, used by
// tests and by STORE=memory development servers.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	groups     map[string]*models.Group
	groupOrder []string

	likes []models.Like

	matches     map[string]*models.Match
	matchByPair map[string]string
	matchOrder  []string

	rooms       map[string]*models.ChatRoom
	roomByMatch map[string]string
	roomOrder   []string
	messages    map[string][]storedMessage
	seq         uint64

	requests     map[string]*models.JoinRequest
	requestOrder []string
}

type storedMessage struct {
	msg models.ChatMessage
	seq uint64
}

func New() *Store {
	return &Store{
		groups:      make(map[string]*models.Group),
		matches:     make(map[string]*models.Match),
		matchByPair: make(map[string]string),
		rooms:       make(map[string]*models.ChatRoom),
		roomByMatch: make(map[string]string),
		messages:    make(map[string][]storedMessage),
		requests:    make(map[string]*models.JoinRequest),
	}
}

// Repositories exposes s through the repository.Store bundle
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Groups:       s,
		Likes:        s,
		Matches:      s,
		Chats:        s,
		JoinRequests: s,
	}
}

// Groups

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.ID]; ok {
		return repository.ErrConflict
	}
	s.groups[group.ID] = group.Clone()
	s.groupOrder = append(s.groupOrder, group.ID)
	return nil
}

func (s *Store) GetGroup(_ context.Context, id string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *Store) filterGroups(keep func(*models.Group) bool) []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Group{}
	for _, id := range s.groupOrder {
		g := s.groups[id]
		if g.IsActive && keep(g) {
			out = append(out, *g.Clone())
		}
	}
	return out
}

func (s *Store) ListActiveGroups(_ context.Context) ([]models.Group, error) {
	return s.filterGroups(func(*models.Group) bool { return true }), nil
}

func (s *Store) ListGroupsByCreator(_ context.Context, userID string) ([]models.Group, error) {
	return s.filterGroups(func(g *models.Group) bool { return g.CreatedBy == userID }), nil
}

func (s *Store) ListGroupsByMember(_ context.Context, userID string) ([]models.Group, error) {
	return s.filterGroups(func(g *models.Group) bool { return g.HasMember(userID) }), nil
}

func (s *Store) UpdateGroup(_ context.Context, id string, patch models.GroupPatch, at time.Time) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Bio != nil {
		g.Bio = *patch.Bio
	}
	if patch.PhotoURL != nil {
		g.PhotoURL = *patch.PhotoURL
	}
	g.UpdatedAt = at
	return g.Clone(), nil
}

func (s *Store) SetActive(_ context.Context, id string, active bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return repository.ErrNotFound
	}
	g.IsActive = active
	g.UpdatedAt = at
	return nil
}

func (s *Store) AddMember(_ context.Context, groupID string, member models.GroupMember, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	if g.HasMember(member.UserID) {
		return repository.ErrConflict
	}
	g.Members = append(g.Members, member)
	g.UpdatedAt = at
	return nil
}

func (s *Store) RemoveMember(_ context.Context, groupID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	idx := g.MemberIndex(userID)
	if idx < 0 {
		return repository.ErrNotFound
	}
	g.Members = append(g.Members[:idx:idx], g.Members[idx+1:]...)
	g.UpdatedAt = at
	return nil
}

func (s *Store) ReplaceMembers(_ context.Context, groupID string, members []models.GroupMember, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.UserID] {
			return repository.ErrConflict
		}
		seen[m.UserID] = true
	}
	g.Members = append([]models.GroupMember(nil), members...)
	g.UpdatedAt = at
	return nil
}

// Likes

func (s *Store) CreateLike(_ context.Context, like *models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.likes = append(s.likes, *like)
	return nil
}

func (s *Store) HasLike(_ context.Context, fromGroupID, toGroupID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.likes {
		if l.FromGroupID == fromGroupID && l.ToGroupID == toGroupID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListLikedBy(_ context.Context, fromGroupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.distinctLikes(func(l models.Like) (string, bool) {
		return l.ToGroupID, l.FromGroupID == fromGroupID
	}), nil
}

func (s *Store) ListLikersOf(_ context.Context, toGroupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.distinctLikes(func(l models.Like) (string, bool) {
		return l.FromGroupID, l.ToGroupID == toGroupID
	}), nil
}

func (s *Store) distinctLikes(pick func(models.Like) (string, bool)) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range s.likes {
		id, ok := pick(l)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// LikeCount returns the number of stored like edges, duplicates included
func (s *Store) LikeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.likes)
}

// Matches

func (s *Store) CreateMatch(_ context.Context, m *models.Match) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.PairKey(m.GroupID1, m.GroupID2)
	if id, ok := s.matchByPair[key]; ok {
		*m = *s.matches[id]
		return false, nil
	}
	stored := *m
	s.matches[m.ID] = &stored
	s.matchByPair[key] = m.ID
	s.matchOrder = append(s.matchOrder, m.ID)
	return true, nil
}

func (s *Store) GetMatch(_ context.Context, id string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *Store) FindMatch(_ context.Context, groupA, groupB string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.matchByPair[models.PairKey(groupA, groupB)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s.matches[id]
	return &c, nil
}

func (s *Store) ListMatchesForGroup(_ context.Context, groupID string) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Match{}
	for _, id := range s.matchOrder {
		if m := s.matches[id]; m.Involves(groupID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *Store) SetChatID(_ context.Context, matchID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return repository.ErrNotFound
	}
	m.ChatID = chatID
	return nil
}

// MatchCount returns the number of stored matches
func (s *Store) MatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// Chat

func cloneRoom(r *models.ChatRoom) *models.ChatRoom {
	c := *r
	c.MemberIDs = append([]string(nil), r.MemberIDs...)
	if r.LastMessageAt != nil {
		t := *r.LastMessageAt
		c.LastMessageAt = &t
	}
	return &c
}

func (s *Store) CreateChatRoom(_ context.Context, room *models.ChatRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomByMatch[room.MatchID]; ok {
		return repository.ErrConflict
	}
	s.rooms[room.ID] = cloneRoom(room)
	s.roomByMatch[room.MatchID] = room.ID
	s.roomOrder = append(s.roomOrder, room.ID)
	return nil
}

func (s *Store) GetChatRoom(_ context.Context, id string) (*models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRoom(r), nil
}

func (s *Store) GetChatRoomByMatch(_ context.Context, matchID string) (*models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.roomByMatch[matchID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRoom(s.rooms[id]), nil
}

func (s *Store) ListChatRoomsForUser(_ context.Context, userID string) ([]models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ChatRoom{}
	for _, id := range s.roomOrder {
		if r := s.rooms[id]; r.HasMember(userID) {
			out = append(out, *cloneRoom(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(&out[i]).After(lastActivity(&out[j]))
	})
	return out, nil
}

func lastActivity(r *models.ChatRoom) time.Time {
	if r.LastMessageAt != nil {
		return *r.LastMessageAt
	}
	return r.CreatedAt
}

// ChatRoomCount returns the number of stored chat rooms
func (s *Store) ChatRoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *Store) CreateMessage(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[msg.ChatRoomID]
	if !ok {
		return repository.ErrNotFound
	}
	s.seq++
	s.messages[msg.ChatRoomID] = append(s.messages[msg.ChatRoomID], storedMessage{msg: *msg, seq: s.seq})

	at := msg.CreatedAt
	room.LastMessageAt = &at
	room.LastMessage = msg.Message
	return nil
}

func (s *Store) ListMessages(_ context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	stored := append([]storedMessage(nil), s.messages[roomID]...)
	s.mu.RUnlock()

	sort.SliceStable(stored, func(i, j int) bool {
		if !stored[i].msg.CreatedAt.Equal(stored[j].msg.CreatedAt) {
			return stored[i].msg.CreatedAt.Before(stored[j].msg.CreatedAt)
		}
		return stored[i].seq < stored[j].seq
	})
	if limit > 0 && len(stored) > limit {
		stored = stored[len(stored)-limit:]
	}

	out := make([]models.ChatMessage, 0, len(stored))
	for _, sm := range stored {
		out = append(out, sm.msg)
	}
	return out, nil
}

// Join requests

func (s *Store) CreateJoinRequest(_ context.Context, req *models.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Status == models.JoinRequestPending && s.hasPendingLocked(req.GroupID, req.UserID) {
		return repository.ErrConflict
	}
	c := *req
	s.requests[req.ID] = &c
	s.requestOrder = append(s.requestOrder, req.ID)
	return nil
}

func (s *Store) GetJoinRequest(_ context.Context, id string) (*models.JoinRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *Store) listRequests(keep func(*models.JoinRequest) bool, status models.JoinRequestStatus) []models.JoinRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.JoinRequest{}
	for _, id := range s.requestOrder {
		r := s.requests[id]
		if keep(r) && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListByGroup(_ context.Context, groupID string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	return s.listRequests(func(r *models.JoinRequest) bool { return r.GroupID == groupID }, status), nil
}

func (s *Store) ListByUser(_ context.Context, userID string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	return s.listRequests(func(r *models.JoinRequest) bool { return r.UserID == userID }, status), nil
}

func (s *Store) HasPending(_ context.Context, groupID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPendingLocked(groupID, userID), nil
}

func (s *Store) hasPendingLocked(groupID, userID string) bool {
	for _, r := range s.requests {
		if r.GroupID == groupID && r.UserID == userID && r.Status == models.JoinRequestPending {
			return true
		}
	}
	return false
}

func (s *Store) TransitionStatus(_ context.Context, id string, from, to models.JoinRequestStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.Status != from {
		return repository.ErrConflict
	}
	r.Status = to
	r.UpdatedAt = at
	return nil
}
