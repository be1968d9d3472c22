package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins string

	// Browser fallback
	ChromePath         string
	ChromeRemoteURL    string
	BrowserFallback    bool
	DebugScreenshotDir string

	// Upstream timeouts
	FetchTimeout    time.Duration
	NavTimeout      time.Duration
	SelectorTimeout time.Duration

	// Cache tuning
	TokenTTL           time.Duration
	MessageTTL         time.Duration
	MessageFreshWindow time.Duration
	ChannelTTL         time.Duration
	MaxCachedMessages  int
	SweepInterval      time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		ChromePath:         getEnv("CHROME_PATH", ""),
		ChromeRemoteURL:    getEnv("CHROME_REMOTE_URL", ""),
		BrowserFallback:    getEnvBool("BROWSER_FALLBACK", true),
		DebugScreenshotDir: getEnv("DEBUG_SCREENSHOT_DIR", ""),

		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		NavTimeout:      getEnvDuration("NAV_TIMEOUT", 30*time.Second),
		SelectorTimeout: getEnvDuration("SELECTOR_TIMEOUT", 10*time.Second),

		TokenTTL:           getEnvDuration("TOKEN_TTL", 15*time.Minute),
		MessageTTL:         getEnvDuration("MESSAGE_TTL", 5*time.Minute),
		MessageFreshWindow: getEnvDuration("MESSAGE_FRESH_WINDOW", 10*time.Second),
		ChannelTTL:         getEnvDuration("CHANNEL_TTL", 24*time.Hour),
		MaxCachedMessages:  getEnvInt("MAX_CACHED_MESSAGES", 2000),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
