package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/youtube"
)

type StatsHandler struct {
	counters *youtube.Counters
	tokens   *cache.TTLCache[*model.SessionTokens]
	channels *cache.TTLCache[*model.ChannelInfo]
	store    *cache.MessageStore
	startAt  time.Time
}

func NewStatsHandler(counters *youtube.Counters, tokens *cache.TTLCache[*model.SessionTokens], channels *cache.TTLCache[*model.ChannelInfo], store *cache.MessageStore) *StatsHandler {
	return &StatsHandler{
		counters: counters,
		tokens:   tokens,
		channels: channels,
		store:    store,
		startAt:  time.Now(),
	}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	tokenHits, tokenMisses := h.tokens.Stats()
	chanHits, chanMisses := h.channels.Stats()

	return c.JSON(fiber.Map{
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"upstream":       h.counters.Snapshot(),
		"caches": fiber.Map{
			"tokens": fiber.Map{
				"entries": h.tokens.Len(),
				"hits":    tokenHits,
				"misses":  tokenMisses,
			},
			"channels": fiber.Map{
				"entries": h.channels.Len(),
				"hits":    chanHits,
				"misses":  chanMisses,
			},
			"messages": fiber.Map{
				"videos": h.store.Len(),
			},
		},
	})
}
