package models

import "strings"

// Identity is the authenticated caller as asserted by the identity provider
type Identity struct {
	UserID   string `json:"userId"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// DisplayName falls back to the email local part, then to fallback
func (i Identity) DisplayName(fallback string) string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(i.Email, "@"); ok && local != "" {
		return local
	}
	return fallback
}

// AsMember builds a membership row for the caller
func (i Identity) AsMember(fallback string) GroupMember {
	return GroupMember{
		UserID:   i.UserID,
		Name:     i.DisplayName(fallback),
		PhotoURL: i.PhotoURL,
	}
}
