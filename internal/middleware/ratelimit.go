package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RateLimitConfig defines the limit for a route group.
type RateLimitConfig struct {
	Max    int                      // requests allowed per window
	Window time.Duration            // window length
	KeyFn  func(c fiber.Ctx) string // key to rate limit on
	Now    func() time.Time         // clock override for tests
}

// window tracks the request count for one key's current window.
type window struct {
	count    int
	resetsAt time.Time
}

// RateLimiter caps requests per key over fixed windows, counted in memory.
// Limits reset when the window rolls over rather than draining gradually.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	length  time.Duration
	keyFn   func(c fiber.Ctx) string
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rl := &RateLimiter{
		windows: make(map[string]*window),
		max:     cfg.Max,
		length:  cfg.Window,
		keyFn:   cfg.KeyFn,
		now:     now,
	}
	// Background cleanup every 5 minutes
	go rl.cleanup()
	return rl
}

// take counts one request against key and reports whether it fits the
// window, how many requests remain and when the window resets.
func (rl *RateLimiter) take(key string) (ok bool, remaining int, resetsAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.windows[key]
	if w == nil || now.After(w.resetsAt) {
		w = &window{resetsAt: now.Add(rl.length)}
		rl.windows[key] = w
	}
	w.count++
	return w.count <= rl.max, max(rl.max-w.count, 0), w.resetsAt
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		ok, remaining, resetsAt := rl.take(rl.keyFn(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetsAt.Unix(), 10))

		if !ok {
			retryAfter := int(resetsAt.Sub(rl.now()).Seconds()) + 1
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":       "RATE_LIMITED",
					"message":    fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
					"retryAfter": retryAfter,
				},
			})
		}

		return c.Next()
	}
}

// Allow checks if a request with the given key is allowed (for testing).
func (rl *RateLimiter) Allow(key string) bool {
	ok, _, _ := rl.take(key)
	return ok
}

// cleanup drops expired windows so idle keys do not accumulate.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, w := range rl.windows {
			if now.After(w.resetsAt) {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}

// KeyByIP returns the client IP as the rate limit key.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// --- Pre-configured rate limiters matching the API contract ---

// NewChatRateLimiter: 120 req/min per IP. Polling clients hit the chat
// endpoints continuously, so this group gets the widest window.
func NewChatRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    120,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}

// NewMetadataRateLimiter: 60 req/min per IP
func NewMetadataRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    60,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}

// NewChannelRateLimiter: 30 req/min per IP. Channel lookups can trigger a
// headless-browser scrape, the most expensive path in the service.
func NewChannelRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    30,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}

// NewStatsRateLimiter: 30 req/min per IP
func NewStatsRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    30,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})
}
