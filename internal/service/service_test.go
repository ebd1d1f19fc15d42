package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"squadmatch/server/internal/logger"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"
	"squadmatch/server/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	userIDs []string
	event   string
	payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, userIDs []string, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{userIDs: append([]string(nil), userIDs...), event: event, payload: payload})
}

func (n *recordingNotifier) ofType(event string) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// tickingClock advances one second per reading
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	mem      *memory.Store
	svc      *Services
	notifier *recordingNotifier
}

func newFixture(t *testing.T, wrap ...func(*repository.Store)) *fixture {
	t.Helper()
	mem := memory.New()
	store := mem.Repositories()
	for _, w := range wrap {
		w(&store)
	}
	notifier := &recordingNotifier{}
	clock := &tickingClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := New(Deps{
		Store:         store,
		Notifier:      notifier,
		Logger:        logger.Discard(),
		PublicBaseURL: "https://squadmatch.test",
		Now:           clock.Now,
	})
	return &fixture{mem: mem, svc: svc, notifier: notifier}
}

func identity(id string) models.Identity {
	return models.Identity{UserID: id, Name: "name-" + id, Email: id + "@example.com"}
}

// group creates a group owned by creator with the other users as members
func (f *fixture) group(t *testing.T, name, creator string, others ...string) *models.Group {
	t.Helper()
	members := []models.GroupMember{}
	for _, id := range others {
		members = append(members, models.GroupMember{UserID: id, Name: "name-" + id})
	}
	g, err := f.svc.Groups.CreateGroup(context.Background(), identity(creator), CreateGroupInput{Name: name, Members: members})
	require.NoError(t, err)
	return g
}
