package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/youtube"
)

type HealthHandler struct {
	browser  *youtube.BrowserManager
	tokens   *cache.TTLCache[*model.SessionTokens]
	channels *cache.TTLCache[*model.ChannelInfo]
	store    *cache.MessageStore
	startAt  time.Time
}

func NewHealthHandler(browser *youtube.BrowserManager, tokens *cache.TTLCache[*model.SessionTokens], channels *cache.TTLCache[*model.ChannelInfo], store *cache.MessageStore) *HealthHandler {
	return &HealthHandler{
		browser:  browser,
		tokens:   tokens,
		channels: channels,
		store:    store,
		startAt:  time.Now(),
	}
}

// Live handles GET /health/live — liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready — readiness probe. A degraded browser
// does not fail readiness: static-page extraction still serves most
// requests without it.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	checks := make(fiber.Map)
	overallStatus := "healthy"

	checks["browser"] = checkBrowser(h.browser)
	if bc, ok := checks["browser"].(fiber.Map); ok {
		if bc["status"] == "down" {
			overallStatus = "degraded"
		}
	}

	checks["caches"] = fiber.Map{
		"status":   "up",
		"tokens":   h.tokens.Len(),
		"channels": h.channels.Len(),
		"videos":   h.store.Len(),
	}

	uptimeSeconds := int(time.Since(h.startAt).Seconds())

	return c.JSON(fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": uptimeSeconds,
		"version":        "1.0.0",
	})
}

func checkBrowser(m *youtube.BrowserManager) fiber.Map {
	if m == nil {
		return fiber.Map{"status": "disabled"}
	}

	state := m.State()
	status := "up"
	switch state {
	case youtube.BrowserDisconnected:
		status = "down"
	case youtube.BrowserUninitialized:
		// Lazy launch: not started until the first static-extraction miss.
		status = "idle"
	case youtube.BrowserCreating:
		status = "starting"
	}

	return fiber.Map{
		"status": status,
		"state":  state.String(),
	}
}
