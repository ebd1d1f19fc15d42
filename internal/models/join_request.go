package models

import "time"

// JoinRequestStatus is the state of a join request
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
	// JoinRequestCancelled marks a request withdrawn by the requester.
	JoinRequestCancelled JoinRequestStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s JoinRequestStatus) Valid() bool {
	switch s {
	case JoinRequestPending, JoinRequestApproved, JoinRequestRejected, JoinRequestCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s
func (s JoinRequestStatus) Terminal() bool {
	return s != JoinRequestPending
}

// JoinRequest is a user's request to become a member of a group
type JoinRequest struct {
	ID           string            `json:"id" db:"id"`
	GroupID      string            `json:"groupId" db:"group_id"`
	UserID       string            `json:"userId" db:"user_id"`
	UserName     string            `json:"userName" db:"user_name"`
	UserPhotoURL string            `json:"userPhotoURL,omitempty" db:"user_photo_url"`
	UserEmail    string            `json:"userEmail,omitempty" db:"user_email"`
	Status       JoinRequestStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time         `json:"updatedAt" db:"updated_at"`
}
