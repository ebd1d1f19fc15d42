package utils

import (
	"fmt"
	"time"
)

// JoinLink builds the shareable deep link for a group
func JoinLink(baseURL, groupID string) string {
	return fmt.Sprintf("%s/groups/join/%s", baseURL, groupID)
}

// GroupPhotoPath returns the object path for a group photo uploaded at t
func GroupPhotoPath(groupID string, t time.Time) string {
	return fmt.Sprintf("groups/%s/photo_%d.jpg", groupID, t.UnixMilli())
}

// MemberPhotoPath returns the object path for a member photo uploaded at t
func MemberPhotoPath(userID string, t time.Time) string {
	return fmt.Sprintf("members/%s/photo_%d.jpg", userID, t.UnixMilli())
}
