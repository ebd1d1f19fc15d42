package models

import "time"

// Group represents a set of users matched as a unit
type Group struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Bio       string        `json:"bio" db:"bio"`
	PhotoURL  string        `json:"photoURL,omitempty" db:"photo_url"`
	CreatedBy string        `json:"createdBy" db:"created_by"`
	Members   []GroupMember `json:"members"`
	IsActive  bool          `json:"isActive" db:"is_active"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

// GroupMember is a user's membership row with denormalized display fields
type GroupMember struct {
	UserID   string `json:"userId" db:"user_id"`
	Name     string `json:"name" db:"name"`
	PhotoURL string `json:"photoURL,omitempty" db:"photo_url"`
	Bio      string `json:"bio,omitempty" db:"bio"`
}

// GroupPatch carries a partial group update; nil fields are left untouched
type GroupPatch struct {
	Name     *string `json:"name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	PhotoURL *string `json:"photoURL,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p GroupPatch) Empty() bool {
	return p.Name == nil && p.Bio == nil && p.PhotoURL == nil
}

// HasMember reports whether userID appears in the member list
func (g *Group) HasMember(userID string) bool {
	return g.MemberIndex(userID) >= 0
}

// MemberIndex returns the position of userID in the member list or -1
func (g *Group) MemberIndex(userID string) int {
	for i, m := range g.Members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

// MemberIDs returns member user IDs in list order
func (g *Group) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// Clone returns a copy that shares no slices with g
func (g *Group) Clone() *Group {
	c := *g
	c.Members = append([]GroupMember(nil), g.Members...)
	return &c
}
