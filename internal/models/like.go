package models

import "time"

// Like is a directed "fromGroup likes toGroup" edge. Likes are append-only.
type Like struct {
	ID          string    `json:"id" db:"id"`
	FromGroupID string    `json:"fromGroupId" db:"from_group_id"`
	ToGroupID   string    `json:"toGroupId" db:"to_group_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Match records two groups that liked each other
type Match struct {
	ID        string    `json:"id" db:"id"`
	GroupID1  string    `json:"groupId1" db:"group_id1"`
	GroupID2  string    `json:"groupId2" db:"group_id2"`
	MatchedAt time.Time `json:"matchedAt" db:"matched_at"`
	ChatID    string    `json:"chatId,omitempty" db:"chat_id"`
}

// Involves reports whether groupID is one side of the match
func (m *Match) Involves(groupID string) bool {
	return m.GroupID1 == groupID || m.GroupID2 == groupID
}

// Other returns the opposite side of groupID
func (m *Match) Other(groupID string) string {
	if m.GroupID1 == groupID {
		return m.GroupID2
	}
	return m.GroupID1
}

// PairKey identifies the unordered pair {a, b}
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
