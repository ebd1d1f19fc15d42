package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Policy is a request budget shared by a class of endpoints
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

var (
	// CreatePolicy guards endpoints that create records other users see
	CreatePolicy = Policy{Name: "create", Max: 5, Window: 15 * time.Minute}
	WritePolicy  = Policy{Name: "write", Max: 30, Window: time.Minute}
	ReadPolicy   = Policy{Name: "read", Max: 100, Window: time.Minute}
	UploadPolicy = Policy{Name: "upload", Max: 10, Window: 5 * time.Minute}
)

// RateLimit enforces p per caller over a sliding window. Callers are keyed by
// user ID once authenticated, by IP otherwise.
func RateLimit(p Policy) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               p.Max,
		Expiration:        p.Window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := GetUserID(c); userID != "" {
				return p.Name + ":user:" + userID
			}
			return p.Name + ":ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests, please try again later",
			})
		},
	})
}
