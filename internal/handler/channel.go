package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/middleware"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/service"
	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

type ChannelHandler struct {
	svc *service.ChannelService
}

func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// GetLive handles GET /api/channel/live?url=<channelURL>
func (h *ChannelHandler) GetLive(c fiber.Ctx) error {
	rawURL, code, errMsg := middleware.ValidateChannelURL(fiber.Query[string](c, "url"))
	if code != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, code, errMsg)
	}

	live, err := h.svc.LiveVideos(c.Context(), rawURL)
	if err != nil {
		if errors.Is(err, yturl.ErrBadChannelURL) {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_URL", err.Error())
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to scrape channel live streams")
	}

	return c.JSON(live)
}
