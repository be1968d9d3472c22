package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/handler"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router. A nil Debug
// handler leaves the debug routes unregistered.
type Handlers struct {
	LiveChat *handler.LiveChatHandler
	Metadata *handler.MetadataHandler
	Channel  *handler.ChannelHandler
	Stats    *handler.StatsHandler
	Health   *handler.HealthHandler
	Debug    *handler.DebugHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (before API group, never rate limited)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes, rate limited per group
	api := app.Group("/api")

	chat := api.Group("/live-chat", middleware.NewChatRateLimiter().Handler())
	chat.Post("/", h.LiveChat.Snapshot)
	chat.Get("/poll", h.LiveChat.Poll)

	meta := api.Group("/metadata", middleware.NewMetadataRateLimiter().Handler())
	meta.Get("/", h.Metadata.Get)

	channel := api.Group("/channel", middleware.NewChannelRateLimiter().Handler())
	channel.Get("/live", h.Channel.GetLive)

	stats := api.Group("/stats", middleware.NewStatsRateLimiter().Handler())
	stats.Get("/", h.Stats.GetStats)

	if h.Debug != nil {
		dbg := api.Group("/debug")
		dbg.Get("/screenshots", h.Debug.ListScreenshots)
		dbg.Get("/screenshots/latest", h.Debug.LatestScreenshot)
		dbg.Get("/screenshots/:name", h.Debug.GetScreenshot)
	}
}
