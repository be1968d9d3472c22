package handler

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/middleware"
)

// DebugHandler serves extraction-failure screenshots written by the browser
// manager. Routes are only registered when a screenshot directory is
// configured.
type DebugHandler struct {
	screenshotDir string
}

func NewDebugHandler(screenshotDir string) *DebugHandler {
	return &DebugHandler{screenshotDir: screenshotDir}
}

type screenshotEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListScreenshots handles GET /api/debug/screenshots
func (h *DebugHandler) ListScreenshots(c fiber.Ctx) error {
	shots, err := h.listShots()
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read screenshot directory")
	}
	return c.JSON(fiber.Map{"screenshots": shots})
}

// LatestScreenshot handles GET /api/debug/screenshots/latest
// Serves the most recently written screenshot.
func (h *DebugHandler) LatestScreenshot(c fiber.Ctx) error {
	shots, err := h.listShots()
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read screenshot directory")
	}
	if len(shots) == 0 {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No screenshots captured yet")
	}
	return h.sendShot(c, shots[0].Name)
}

// GetScreenshot handles GET /api/debug/screenshots/:name
func (h *DebugHandler) GetScreenshot(c fiber.Ctx) error {
	name := c.Params("name")
	if !validShotName(name) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", "Invalid screenshot name")
	}
	if _, err := os.Stat(filepath.Join(h.screenshotDir, name)); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Screenshot not found")
	}
	return h.sendShot(c, name)
}

// listShots returns all .png screenshots, newest first.
func (h *DebugHandler) listShots() ([]screenshotEntry, error) {
	entries, err := os.ReadDir(h.screenshotDir)
	if err != nil {
		return nil, err
	}

	shots := make([]screenshotEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		shots = append(shots, screenshotEntry{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}

	sort.Slice(shots, func(i, j int) bool {
		return shots[i].Modified.After(shots[j].Modified)
	})
	return shots, nil
}

func (h *DebugHandler) sendShot(c fiber.Ctx, name string) error {
	c.Set("Content-Type", "image/png")
	return c.SendFile(filepath.Join(h.screenshotDir, name))
}

// validShotName rejects anything that could leave the screenshot directory.
func validShotName(name string) bool {
	if name == "" || !strings.HasSuffix(name, ".png") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}
