package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/middleware"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/service"
)

type MetadataHandler struct {
	svc *service.MetadataService
}

func NewMetadataHandler(svc *service.MetadataService) *MetadataHandler {
	return &MetadataHandler{svc: svc}
}

// Get handles GET /api/metadata?urls=a,b,c
func (h *MetadataHandler) Get(c fiber.Ctx) error {
	urls, code, errMsg := middleware.ValidateVideoURLs(middleware.SplitList(fiber.Query[string](c, "urls")))
	if code != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, code, errMsg)
	}

	result := h.svc.Fetch(c.Context(), urls)
	return c.JSON(result)
}
