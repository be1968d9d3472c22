package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/youtube"
)

// Metrics holds the Prometheus collectors the middleware observes directly.
// Upstream activity and cache collectors are func-bridged over the shared
// counters at registration time and need no handles here.
var Metrics = struct {
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	ExtractionDuration prometheus.Histogram
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(counters *youtube.Counters, browser *youtube.BrowserManager, tokens *cache.TTLCache[*model.SessionTokens], channels *cache.TTLCache[*model.ChannelInfo], store *cache.MessageStore) {
	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytanalytics_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytanalytics_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.ExtractionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytanalytics_token_extraction_duration_seconds",
			Help:    "Duration of session token extractions.",
			Buckets: prometheus.DefBuckets,
		},
	)

	prometheus.MustRegister(
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.ExtractionDuration,
	)

	counterFunc := func(name, help string, labels prometheus.Labels, load func() int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: name, Help: help, ConstLabels: labels},
			func() float64 { return float64(load()) },
		)
	}
	gaugeFunc := func(name, help string, labels prometheus.Labels, load func() int) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help, ConstLabels: labels},
			func() float64 { return float64(load()) },
		)
	}

	// Upstream activity, read live from the shared counters.
	prometheus.MustRegister(
		counterFunc("ytanalytics_page_fetches_total",
			"Total youtube.com page fetches (watch, streams and about pages).", nil, counters.PageFetches.Load),
		counterFunc("ytanalytics_token_extractions_total",
			"Total successful token extractions, by variant.",
			prometheus.Labels{"variant": "static"}, counters.ExtractionsStatic.Load),
		counterFunc("ytanalytics_token_extractions_total",
			"Total successful token extractions, by variant.",
			prometheus.Labels{"variant": "browser"}, counters.ExtractionsBrowser.Load),
		counterFunc("ytanalytics_token_extraction_failures_total",
			"Total failed token extraction attempts.", nil, counters.ExtractionsFailed.Load),
		counterFunc("ytanalytics_chat_polls_total",
			"Total live chat poll calls, by outcome.",
			prometheus.Labels{"outcome": "ok"}, counters.ChatPolls.Load),
		counterFunc("ytanalytics_chat_polls_total",
			"Total live chat poll calls, by outcome.",
			prometheus.Labels{"outcome": "error"}, counters.ChatPollsFailed.Load),
		counterFunc("ytanalytics_messages_normalized_total",
			"Total chat messages normalized, by message type.",
			prometheus.Labels{"type": model.MessageText}, counters.TextMessages.Load),
		counterFunc("ytanalytics_messages_normalized_total",
			"Total chat messages normalized, by message type.",
			prometheus.Labels{"type": model.MessagePaid}, counters.PaidMessages.Load),
		counterFunc("ytanalytics_messages_normalized_total",
			"Total chat messages normalized, by message type.",
			prometheus.Labels{"type": model.MessageSticker}, counters.StickerMessages.Load),
		counterFunc("ytanalytics_messages_normalized_total",
			"Total chat messages normalized, by message type.",
			prometheus.Labels{"type": model.MessageMembership}, counters.MembershipMessages.Load),
		counterFunc("ytanalytics_unknown_renderers_total",
			"Total chat items dropped because their renderer is not modeled.", nil, counters.UnknownRenderers.Load),
		counterFunc("ytanalytics_browser_launches_total",
			"Total headless browser launches.", nil, counters.BrowserLaunches.Load),
		counterFunc("ytanalytics_browser_crashes_total",
			"Total headless browser disconnects detected.", nil, counters.BrowserCrashes.Load),
	)

	// Cache gauges and hit/miss counters.
	prometheus.MustRegister(
		gaugeFunc("ytanalytics_cache_entries",
			"Current cache entry count, by cache.",
			prometheus.Labels{"cache": "tokens"}, tokens.Len),
		gaugeFunc("ytanalytics_cache_entries",
			"Current cache entry count, by cache.",
			prometheus.Labels{"cache": "channels"}, channels.Len),
		gaugeFunc("ytanalytics_cache_entries",
			"Current cache entry count, by cache.",
			prometheus.Labels{"cache": "messages"}, store.Len),
		counterFunc("ytanalytics_cache_hits_total",
			"Total cache hits, by cache.",
			prometheus.Labels{"cache": "tokens"}, func() int64 { h, _ := tokens.Stats(); return h }),
		counterFunc("ytanalytics_cache_misses_total",
			"Total cache misses, by cache.",
			prometheus.Labels{"cache": "tokens"}, func() int64 { _, m := tokens.Stats(); return m }),
		counterFunc("ytanalytics_cache_hits_total",
			"Total cache hits, by cache.",
			prometheus.Labels{"cache": "channels"}, func() int64 { h, _ := channels.Stats(); return h }),
		counterFunc("ytanalytics_cache_misses_total",
			"Total cache misses, by cache.",
			prometheus.Labels{"cache": "channels"}, func() int64 { _, m := channels.Stats(); return m }),
	)

	// Browser state gauge — absent when the browser fallback is disabled.
	if browser != nil {
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ytanalytics_browser_state",
				Help: "Headless browser lifecycle state (0=uninitialized, 1=creating, 2=ready, 3=disconnected).",
			},
			func() float64 { return float64(browser.State()) },
		))
	}
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	const shots = "/api/debug/screenshots/"
	if len(path) > len(shots) && path[:len(shots)] == shots && path != shots+"latest" {
		return shots + ":name"
	}
	return path
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
