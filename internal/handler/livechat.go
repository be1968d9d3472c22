package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/middleware"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/service"
)

type LiveChatHandler struct {
	svc *service.LiveChatService
}

func NewLiveChatHandler(svc *service.LiveChatService) *LiveChatHandler {
	return &LiveChatHandler{svc: svc}
}

type snapshotRequest struct {
	URLs     []string `json:"urls"`
	PageSize int      `json:"pageSize"`
}

// Snapshot handles POST /api/live-chat
func (h *LiveChatHandler) Snapshot(c fiber.Ctx) error {
	var req snapshotRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	urls, code, errMsg := middleware.ValidateVideoURLs(req.URLs)
	if code != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, code, errMsg)
	}

	pageSize := middleware.DefaultPageSize
	if req.PageSize != 0 {
		if req.PageSize < middleware.MinPageSize || req.PageSize > middleware.MaxPageSize {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM",
				fmt.Sprintf("pageSize must be between %d and %d", middleware.MinPageSize, middleware.MaxPageSize))
		}
		pageSize = req.PageSize
	}

	snap := h.svc.Snapshot(c.Context(), service.ChatQuery{
		URLs:     urls,
		PageSize: pageSize,
	})
	return c.JSON(snap)
}

// Poll handles GET /api/live-chat/poll
func (h *LiveChatHandler) Poll(c fiber.Ctx) error {
	urls, code, errMsg := middleware.ValidateVideoURLs(middleware.SplitList(fiber.Query[string](c, "urls")))
	if code != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, code, errMsg)
	}

	pageSize, errMsg := middleware.ValidatePageSize(fiber.Query[string](c, "pageSize"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	after, errMsg := middleware.ValidateAfter(fiber.Query[string](c, "after"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	exclude, errMsg := middleware.ValidateExcludeIDs(fiber.Query[string](c, "exclude"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	page := h.svc.Poll(c.Context(), service.ChatQuery{
		URLs:       urls,
		PageSize:   pageSize,
		After:      after,
		ExcludeIDs: exclude,
	})
	return c.JSON(page)
}
