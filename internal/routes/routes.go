package routes

import (
	"time"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/handlers"
	"github.com/fundhaven/screening-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	campaignHandler *handlers.CampaignHandler,
	screeningHandler *handlers.ScreeningHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Campaigns. Creation and edits run the sync screening phase inline and
	// enqueue the async job; public fetch hides blocked campaigns.
	api.Post("/campaigns", middleware.JWTProtected(cfg), campaignHandler.Create)
	api.Get("/campaigns/mine", middleware.JWTProtected(cfg), campaignHandler.ListMine)
	api.Get("/campaigns/:id", campaignHandler.Get)
	api.Put("/campaigns/:id", middleware.JWTProtected(cfg), campaignHandler.Update)

	// Admin moderation surface
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/campaigns", campaignHandler.AdminList)
	admin.Post("/campaigns/:id/override", campaignHandler.Override)
	admin.Post("/screening/run", screeningHandler.RunBatch)
	admin.Get("/screening/jobs", screeningHandler.ListJobs)
	admin.Get("/screening/jobs/:id", screeningHandler.GetJob)
}
