package postgres

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"squadmatch/server/internal/database"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool  *pgxpool.Pool
	testStore repository.Store
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("squadmatch"),
		postgres.WithUsername("squadmatch"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("skipping postgres repository tests, failed to start container: %s", err)
		return
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	testPool, err = database.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	if err := database.Migrate(ctx, testPool); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	testStore = NewStore(testPool)

	code := m.Run()

	testPool.Close()
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func newGroup(t *testing.T, name string, members ...models.GroupMember) *models.Group {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	g := &models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: members[0].UserID,
		Members:   members,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, testStore.Groups.CreateGroup(context.Background(), g))
	return g
}

func member(id string) models.GroupMember {
	return models.GroupMember{UserID: id, Name: "user " + id}
}

func TestGroupRepository_Members(t *testing.T) {
	ctx := context.Background()
	u1, u2 := uuid.NewString(), uuid.NewString()
	g := newGroup(t, "Sunset Crew", member(u1))

	require.NoError(t, testStore.Groups.AddMember(ctx, g.ID, member(u2), time.Now()))
	err := testStore.Groups.AddMember(ctx, g.ID, member(u2), time.Now())
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := testStore.Groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u1, u2}, got.MemberIDs())

	byMember, err := testStore.Groups.ListGroupsByMember(ctx, u2)
	require.NoError(t, err)
	require.Len(t, byMember, 1)
	assert.Equal(t, g.ID, byMember[0].ID)

	renamed := member(u2)
	renamed.Name = "Renamed"
	require.NoError(t, testStore.Groups.ReplaceMembers(ctx, g.ID, []models.GroupMember{member(u1), renamed}, time.Now()))
	got, err = testStore.Groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Members[1].Name)

	require.NoError(t, testStore.Groups.RemoveMember(ctx, g.ID, u2, time.Now()))
	err = testStore.Groups.RemoveMember(ctx, g.ID, u2, time.Now())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = testStore.Groups.GetGroup(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGroupRepository_UpdateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	g := newGroup(t, "Beach Bums", member(uuid.NewString()))

	bio := "sand everywhere"
	got, err := testStore.Groups.UpdateGroup(ctx, g.ID, models.GroupPatch{Bio: &bio}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Beach Bums", got.Name)
	assert.Equal(t, bio, got.Bio)

	require.NoError(t, testStore.Groups.SetActive(ctx, g.ID, false, time.Now()))
	active, err := testStore.Groups.ListActiveGroups(ctx)
	require.NoError(t, err)
	for _, a := range active {
		assert.NotEqual(t, g.ID, a.ID)
	}
}

func TestMatchRepository_CreateMatchIsUniquePerPair(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.NewString(), uuid.NewString()

	first := &models.Match{ID: uuid.NewString(), GroupID1: a, GroupID2: b, MatchedAt: time.Now()}
	created, err := testStore.Matches.CreateMatch(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &models.Match{ID: uuid.NewString(), GroupID1: b, GroupID2: a, MatchedAt: time.Now()}
	created, err = testStore.Matches.CreateMatch(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	found, err := testStore.Matches.FindMatch(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestChatRepository_MessagesOrdering(t *testing.T) {
	ctx := context.Background()
	room := &models.ChatRoom{
		ID:         uuid.NewString(),
		MatchID:    uuid.NewString(),
		GroupID1:   uuid.NewString(),
		GroupID2:   uuid.NewString(),
		Group1Name: "Sunset Crew",
		Group2Name: "Beach Bums",
		MemberIDs:  []string{"u1", "u2", "u3"},
		CreatedAt:  time.Now(),
	}
	require.NoError(t, testStore.Chats.CreateChatRoom(ctx, room))

	dup := *room
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, testStore.Chats.CreateChatRoom(ctx, &dup), repository.ErrConflict)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, text := range []string{"one", "two", "three"} {
		require.NoError(t, testStore.Chats.CreateMessage(ctx, &models.ChatMessage{
			ID:         uuid.NewString(),
			ChatRoomID: room.ID,
			SenderID:   "u1",
			SenderName: "u1",
			Message:    text,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := testStore.Chats.ListMessages(ctx, room.ID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Message)
	assert.Equal(t, "three", msgs[1].Message)

	got, err := testStore.Chats.GetChatRoomByMatch(ctx, room.MatchID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, got.MemberIDs)
	assert.Equal(t, "three", got.LastMessage)

	err = testStore.Chats.CreateMessage(ctx, &models.ChatMessage{ID: uuid.NewString(), ChatRoomID: "missing", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestJoinRequestRepository_Transitions(t *testing.T) {
	ctx := context.Background()
	g := newGroup(t, "Hikers", member(uuid.NewString()))
	now := time.Now()

	req := &models.JoinRequest{
		ID: uuid.NewString(), GroupID: g.ID, UserID: uuid.NewString(), UserName: "Ann",
		Status: models.JoinRequestPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, testStore.JoinRequests.CreateJoinRequest(ctx, req))

	again := *req
	again.ID = uuid.NewString()
	assert.ErrorIs(t, testStore.JoinRequests.CreateJoinRequest(ctx, &again), repository.ErrConflict)

	require.NoError(t, testStore.JoinRequests.TransitionStatus(ctx, req.ID, models.JoinRequestPending, models.JoinRequestApproved, now))
	err := testStore.JoinRequests.TransitionStatus(ctx, req.ID, models.JoinRequestPending, models.JoinRequestRejected, now)
	assert.ErrorIs(t, err, repository.ErrConflict)
	err = testStore.JoinRequests.TransitionStatus(ctx, uuid.NewString(), models.JoinRequestPending, models.JoinRequestRejected, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	pending, err := testStore.JoinRequests.HasPending(ctx, g.ID, req.UserID)
	require.NoError(t, err)
	assert.False(t, pending)

	approved, err := testStore.JoinRequests.ListByGroup(ctx, g.ID, models.JoinRequestApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, req.ID, approved[0].ID)
}

func TestLikeRepository_DistinctLikers(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.NewString(), uuid.NewString()
	for i := 0; i < 2; i++ {
		require.NoError(t, testStore.Likes.CreateLike(ctx, &models.Like{ID: uuid.NewString(), FromGroupID: a, ToGroupID: b, CreatedAt: time.Now()}))
	}

	liked, err := testStore.Likes.HasLike(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, liked)

	likers, err := testStore.Likes.ListLikersOf(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, likers)
}
