package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"squadmatch/server/internal/handlers"
	"squadmatch/server/internal/logger"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository/memory"
	"squadmatch/server/internal/routes"
	"squadmatch/server/internal/service"
	"squadmatch/server/internal/storage"
	"squadmatch/server/internal/utils"
	ws "squadmatch/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("handler-test-secret")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	app *fiber.App
	mem *memory.Store
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	mem := memory.New()
	objects := storage.NewLocal(t.TempDir(), "http://api.test", 1024)
	hub := ws.NewHub(ws.WithLogger(log))

	svc := service.New(service.Deps{
		Store:         mem.Repositories(),
		Objects:       objects,
		Notifier:      hub,
		Logger:        log,
		PublicBaseURL: "http://app.test",
	})

	app := fiber.New()
	routes.SetupRoutes(app, handlers.New(svc, objects, hub, 1024, log), secret)
	return &testServer{app: app, mem: mem}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, models.Identity{UserID: userID, Name: "name-" + userID}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (s *testServer) createGroup(t *testing.T, userID, name string, members ...string) models.Group {
	t.Helper()
	in := service.CreateGroupInput{Name: name}
	for _, m := range members {
		in.Members = append(in.Members, models.GroupMember{UserID: m, Name: "name-" + m})
	}
	status, env := s.do(t, "POST", "/api/v1/groups", userID, in)
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	return decode[models.Group](t, env)
}

func TestHealthAndAuth(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, "GET", "/api/v1/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env := s.do(t, "GET", "/api/v1/groups", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, env = s.do(t, "GET", "/api/v1/me", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u1", decode[models.Identity](t, env).UserID)
}

func TestGroupLifecycle(t *testing.T) {
	s := newServer(t)
	g := s.createGroup(t, "u1", "Sunset Crew")
	assert.Equal(t, []string{"u1"}, g.MemberIDs())

	status, env := s.do(t, "POST", "/api/v1/groups/"+g.ID+"/members", "u1", map[string]string{"userId": "u2", "name": "Bea"})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, env = s.do(t, "POST", "/api/v1/groups/"+g.ID+"/members", "u1", map[string]string{"userId": "u2", "name": "Bea"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "User is already a member of this group", env.Error)

	status, _ = s.do(t, "PUT", "/api/v1/groups/"+g.ID, "u2", map[string]string{"bio": "hi"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(t, "GET", "/api/v1/groups/"+g.ID+"/share", "u2", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "http://app.test/groups/join/"+g.ID, decode[map[string]string](t, env)["link"])

	status, env = s.do(t, "POST", "/api/v1/groups/join/"+g.ID, "u3", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	joined := decode[models.Group](t, env)
	assert.Equal(t, []string{"u1", "u2", "u3"}, joined.MemberIDs())

	status, _ = s.do(t, "DELETE", "/api/v1/groups/"+g.ID+"/members/u3", "u3", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, "GET", "/api/v1/groups?scope=member", "u2", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Group](t, env), 1)

	status, _ = s.do(t, "GET", "/api/v1/groups?scope=bogus", "u2", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "DELETE", "/api/v1/groups/"+g.ID, "u1", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, "GET", "/api/v1/groups/missing", "u1", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestLikeMatchAndChat(t *testing.T) {
	s := newServer(t)
	sunset := s.createGroup(t, "u1", "Sunset Crew")
	beach := s.createGroup(t, "u2", "Beach Bums", "u3")

	status, _ := s.do(t, "POST", "/api/v1/groups/"+sunset.ID+"/likes", "u2", map[string]string{"toGroupId": beach.ID})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env := s.do(t, "POST", "/api/v1/groups/"+sunset.ID+"/likes", "u1", map[string]string{"toGroupId": beach.ID})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	assert.False(t, decode[service.LikeResult](t, env).Matched)

	status, env = s.do(t, "GET", "/api/v1/groups/"+beach.ID+"/admirers", "u3", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Group](t, env), 1)

	status, env = s.do(t, "POST", "/api/v1/groups/"+beach.ID+"/likes", "u3", map[string]string{"toGroupId": sunset.ID})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	result := decode[service.LikeResult](t, env)
	require.True(t, result.Matched)

	status, env = s.do(t, "GET", "/api/v1/matches/"+result.MatchID+"/chat", "u1", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	room := decode[models.ChatRoom](t, env)
	assert.Equal(t, []string{"u1", "u2", "u3"}, room.MemberIDs)

	status, _ = s.do(t, "GET", "/api/v1/matches/"+result.MatchID+"/chat", "u9", nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(t, "POST", "/api/v1/chats/"+room.ID+"/messages", "u1", map[string]string{"message": "hey"})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	status, _ = s.do(t, "POST", "/api/v1/chats/"+room.ID+"/messages", "u1", map[string]string{"message": "  "})
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = s.do(t, "POST", "/api/v1/chats/"+room.ID+"/messages", "u9", map[string]string{"message": "hey"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(t, "GET", "/api/v1/chats/"+room.ID+"/messages?limit=10", "u2", nil)
	require.Equal(t, fiber.StatusOK, status)
	msgs := decode[[]models.ChatMessage](t, env)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hey", msgs[0].Message)

	status, env = s.do(t, "GET", "/api/v1/chats", "u3", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.ChatRoom](t, env), 1)

	status, env = s.do(t, "GET", "/api/v1/groups/"+sunset.ID+"/matches", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Match](t, env), 1)
}

func TestJoinRequestFlow(t *testing.T) {
	s := newServer(t)
	g := s.createGroup(t, "u1", "Crew")

	status, env := s.do(t, "POST", "/api/v1/groups/"+g.ID+"/requests", "u2", nil)
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	req := decode[models.JoinRequest](t, env)

	status, _ = s.do(t, "POST", "/api/v1/groups/"+g.ID+"/requests", "u2", nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = s.do(t, "GET", "/api/v1/groups/"+g.ID+"/requests?status=pending", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.JoinRequest](t, env), 1)

	status, _ = s.do(t, "GET", "/api/v1/requests?status=nope", "u2", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = s.do(t, "POST", "/api/v1/requests/"+req.ID+"/approve", "u1", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)

	status, env = s.do(t, "POST", "/api/v1/requests/"+req.ID+"/approve", "u1", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Request has already been processed", env.Error)

	status, _ = s.do(t, "POST", "/api/v1/requests/"+req.ID+"/cancel", "u2", nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, "POST", "/api/v1/requests/missing/reject", "u1", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	stored, err := s.mem.GetGroup(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, stored.MemberIDs())
}

func TestProfileUpdate(t *testing.T) {
	s := newServer(t)
	g := s.createGroup(t, "u1", "Crew", "u2")

	status, env := s.do(t, "PUT", "/api/v1/profile", "u2", map[string]string{"displayName": "Bea", "photoURL": "http://x/bea.jpg"})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	stored, err := s.mem.GetGroup(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bea", stored.Members[1].Name)
	assert.Equal(t, "http://x/bea.jpg", stored.Members[1].PhotoURL)
}

func TestPhotoUploadAndServe(t *testing.T) {
	s := newServer(t)
	g := s.createGroup(t, "u1", "Crew")

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("photo", "crew.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/v1/groups/"+g.ID+"/photo", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, "u1"))
	status, env := s.send(t, req)
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	updated := decode[models.Group](t, env)
	require.Contains(t, updated.PhotoURL, "http://api.test/uploads/groups/"+g.ID+"/photo_")

	path := updated.PhotoURL[len("http://api.test"):]
	resp, err := s.app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	resp, err = s.app.Test(httptest.NewRequest("GET", "/uploads/groups/nope.jpg", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWebSocketStatsHidesUserIDs(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, "GET", "/api/v1/ws/stats", "u1", nil)
	require.Equal(t, fiber.StatusOK, status)

	stats := decode[map[string]any](t, env)
	assert.Equal(t, float64(0), stats["onlineUsers"])
	assert.Equal(t, false, stats["connected"])
	assert.NotContains(t, stats, "userIds")
}
