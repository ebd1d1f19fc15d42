package models

import "time"

// ChatRoom is the shared room created for a match
type ChatRoom struct {
	ID            string     `json:"id" db:"id"`
	MatchID       string     `json:"matchId" db:"match_id"`
	GroupID1      string     `json:"groupId1" db:"group_id1"`
	GroupID2      string     `json:"groupId2" db:"group_id2"`
	Group1Name    string     `json:"group1Name" db:"group1_name"`
	Group2Name    string     `json:"group2Name" db:"group2_name"`
	MemberIDs     []string   `json:"memberIds"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"last_message_at"`
	LastMessage   string     `json:"lastMessage,omitempty" db:"last_message"`
}

// HasMember reports whether userID may read and post in the room
func (r *ChatRoom) HasMember(userID string) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ChatMessage represents a message posted in a chat room
type ChatMessage struct {
	ID         string    `json:"id" db:"id"`
	ChatRoomID string    `json:"chatRoomId" db:"chat_room_id"`
	SenderID   string    `json:"senderId" db:"sender_id"`
	SenderName string    `json:"senderName" db:"sender_name"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
