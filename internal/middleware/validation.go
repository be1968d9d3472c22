package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

// Request bounds enforced at the HTTP boundary. Services clamp defensively
// on their own, but requests that blow past these never reach them.
const (
	MaxURLs         = 3
	MinPageSize     = 1
	MaxPageSize     = 500
	DefaultPageSize = 100
	MaxExcludeIDs   = 2000
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// SplitList splits a comma-separated query parameter into trimmed,
// non-empty entries.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateVideoURLs checks the URL-count bound and that every entry is a
// recognizable YouTube video URL. Returns the cleaned list, or an error
// code and message.
func ValidateVideoURLs(raw []string) ([]string, string, string) {
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, "MISSING_PARAM", "at least one url is required"
	}
	if len(urls) > MaxURLs {
		return nil, "TOO_MANY_URLS", fmt.Sprintf("at most %d urls allowed per request", MaxURLs)
	}
	for _, u := range urls {
		if _, err := yturl.ParseVideo(u); err != nil {
			return nil, "INVALID_URL", fmt.Sprintf("%s: not a recognizable YouTube video URL", u)
		}
	}
	return urls, "", ""
}

// ValidateChannelURL checks that a single channel URL is present and
// recognizable (channel ID, handle, or legacy custom form).
func ValidateChannelURL(raw string) (string, string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "MISSING_PARAM", "url query parameter is required"
	}
	if _, err := yturl.ParseChannel(raw); err != nil {
		return "", "INVALID_URL", fmt.Sprintf("%s: not a recognizable YouTube channel URL", raw)
	}
	return raw, "", ""
}

// ValidatePageSize parses an optional pageSize parameter. Empty input
// yields the default.
func ValidatePageSize(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPageSize, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, "pageSize must be an integer"
	}
	if n < MinPageSize || n > MaxPageSize {
		return 0, fmt.Sprintf("pageSize must be between %d and %d", MinPageSize, MaxPageSize)
	}
	return n, ""
}

// ValidateAfter parses an optional RFC3339 cursor timestamp. Empty input
// yields the zero time (no cursor).
func ValidateAfter(raw string) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ""
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, "after must be an RFC3339 timestamp"
	}
	return ts, ""
}

// ValidateExcludeIDs parses an optional comma-separated message ID list.
func ValidateExcludeIDs(raw string) ([]string, string) {
	ids := SplitList(raw)
	if len(ids) > MaxExcludeIDs {
		return nil, fmt.Sprintf("exclude must list at most %d message ids", MaxExcludeIDs)
	}
	return ids, ""
}
