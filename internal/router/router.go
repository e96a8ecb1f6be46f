package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flagforge/flagforge-api/internal/config"
	"github.com/flagforge/flagforge-api/internal/handler"
	"github.com/flagforge/flagforge-api/internal/middleware"
	"github.com/flagforge/flagforge-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ChallengeHandler   *handler.ChallengeHandler
	LeaderboardHandler *handler.LeaderboardHandler
	UserHandler        *handler.UserHandler
	UploadHandler      *handler.UploadHandler
	SeedHandler        *handler.SeedHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.ChallengeHandler != nil {
		submitLimiter := middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
		deps.ChallengeHandler.Register(api.Group("/challenges"), submitLimiter)
	}

	if deps.LeaderboardHandler != nil {
		deps.LeaderboardHandler.Register(api.Group("/leaderboard"))
	}

	if deps.UserHandler != nil {
		deps.UserHandler.RegisterAuth(api.Group("/auth"))
		deps.UserHandler.RegisterUsers(api.Group("/users"))
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(api.Group("/upload"))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}
