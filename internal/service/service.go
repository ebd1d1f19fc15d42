// Package service holds the squadmatch business rules. Each service reads the
// repositories it needs, enforces ownership and state rules, and returns
// apperrors for anything a caller should see.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/repository"
	"squadmatch/server/internal/storage"

	"github.com/google/uuid"
)

// Push event names delivered to connected clients
const (
	EventMatchCreated = "match_created"
	EventChatMessage  = "chat_message"
)

// Notifier pushes an event to every connected session of userIDs
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, event string, payload any)
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, []string, string, any) {}

type Deps struct {
	Store         repository.Store
	Objects       storage.ObjectStore
	Notifier      Notifier
	Logger        *slog.Logger
	PublicBaseURL string
	// Now defaults to time.Now.
	Now func() time.Time
}

type Services struct {
	Groups       *GroupService
	Likes        *LikeService
	Chats        *ChatService
	JoinRequests *JoinRequestService
	Profiles     *ProfileService
	Photos       *PhotoService
}

func New(d Deps) *Services {
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	b := base{store: d.Store, log: d.Logger, now: d.Now, notify: d.Notifier}

	groups := &GroupService{base: b, baseURL: d.PublicBaseURL}
	chats := &ChatService{base: b}
	profiles := &ProfileService{base: b}

	return &Services{
		Groups:       groups,
		Likes:        &LikeService{base: b, chats: chats},
		Chats:        chats,
		JoinRequests: &JoinRequestService{base: b, groups: groups},
		Profiles:     profiles,
		Photos:       &PhotoService{base: b, objects: d.Objects, profiles: profiles},
	}
}

type base struct {
	store  repository.Store
	log    *slog.Logger
	now    func() time.Time
	notify Notifier
}

func (b base) timestamp() time.Time {
	return b.now().UTC()
}

func newID() string {
	return uuid.NewString()
}

// storeErr maps repository sentinels onto the caller-facing taxonomy
func storeErr(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return apperrors.Internal("Failed to "+op, err)
	}
}
