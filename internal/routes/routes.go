package routes

import (
	"squadmatch/server/internal/handlers"
	"squadmatch/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, h *handlers.Handler, jwtSecret []byte) {
	auth := middleware.Auth(jwtSecret)

	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Squadmatch API is running",
		})
	})

	// Serve uploaded files (public)
	app.Get("/uploads/*", middleware.RateLimit(middleware.ReadPolicy), h.GetFile)

	api.Get("/me", auth, h.GetMe)

	// Profile routes (protected)
	profile := api.Group("/profile", auth)
	profile.Put("/", middleware.RateLimit(middleware.WritePolicy), h.UpdateProfile)
	profile.Post("/photo", middleware.RateLimit(middleware.UploadPolicy), h.UploadMemberPhoto)

	// Group routes (protected)
	groups := api.Group("/groups", auth)
	groups.Post("/", middleware.RateLimit(middleware.CreatePolicy), h.CreateGroup)
	groups.Get("/", h.GetGroups)
	groups.Get("/browse", middleware.RateLimit(middleware.ReadPolicy), h.BrowseGroups)
	groups.Get("/join/:groupId", h.GetJoinPreview)
	groups.Post("/join/:groupId", middleware.RateLimit(middleware.WritePolicy), h.JoinGroup)
	groups.Get("/:groupId", h.GetGroupDetails)
	groups.Put("/:groupId", h.UpdateGroup)
	groups.Delete("/:groupId", h.DeleteGroup)
	groups.Post("/:groupId/members", h.AddGroupMember)
	groups.Delete("/:groupId/members/:userId", h.RemoveGroupMember)
	groups.Post("/:groupId/repair", h.RepairGroup)
	groups.Get("/:groupId/share", h.ShareGroup)
	groups.Post("/:groupId/photo", middleware.RateLimit(middleware.UploadPolicy), h.UploadGroupPhoto)

	// Likes and matches (protected)
	groups.Post("/:groupId/likes", middleware.RateLimit(middleware.WritePolicy), h.LikeGroup)
	groups.Get("/:groupId/likes", h.GetLikedGroups)
	groups.Get("/:groupId/admirers", h.GetAdmirers)
	groups.Get("/:groupId/explore", middleware.RateLimit(middleware.ReadPolicy), h.ExploreGroups)
	groups.Get("/:groupId/matches", h.GetGroupMatches)
	api.Get("/matches/:matchId/chat", auth, h.GetMatchChat)

	// Join requests (protected)
	groups.Get("/:groupId/requests", h.GetGroupRequests)
	groups.Post("/:groupId/requests", middleware.RateLimit(middleware.CreatePolicy), h.CreateJoinRequest)
	requests := api.Group("/requests", auth)
	requests.Get("/", h.GetMyRequests)
	requests.Post("/:requestId/approve", h.ApproveRequest)
	requests.Post("/:requestId/reject", h.RejectRequest)
	requests.Post("/:requestId/cancel", h.CancelRequest)

	// Chat routes (protected)
	chats := api.Group("/chats", auth)
	chats.Get("/", h.GetChats)
	chats.Get("/:chatId", h.GetChat)
	chats.Get("/:chatId/messages", h.GetMessages)
	chats.Post("/:chatId/messages", middleware.RateLimit(middleware.WritePolicy), h.SendMessage)

	// WebSocket route (protected)
	api.Get("/ws", auth, h.WebSocketUpgrade, websocket.New(h.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", auth, h.GetWebSocketStats)
}
