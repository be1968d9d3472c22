package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/config"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/handler"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/middleware"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/router"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/service"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/youtube"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "youtube-analytics")

	counters := &youtube.Counters{}
	client := youtube.NewClient(cfg.FetchTimeout)

	var browser *youtube.BrowserManager
	if cfg.BrowserFallback {
		if cfg.DebugScreenshotDir != "" {
			if err := os.MkdirAll(cfg.DebugScreenshotDir, 0o755); err != nil {
				log.Fatalf("create screenshot dir %s: %v", cfg.DebugScreenshotDir, err)
			}
		}
		browser = youtube.NewBrowserManager(youtube.BrowserConfig{
			ExecPath:        cfg.ChromePath,
			RemoteURL:       cfg.ChromeRemoteURL,
			NavTimeout:      cfg.NavTimeout,
			SelectorTimeout: cfg.SelectorTimeout,
			ScreenshotDir:   cfg.DebugScreenshotDir,
		}, counters)
	}

	tokens := cache.NewTTL[*model.SessionTokens](512, cfg.TokenTTL, nil)
	channels := cache.NewTTL[*model.ChannelInfo](512, cfg.ChannelTTL, nil)
	store := cache.NewMessageStore(cfg.MaxCachedMessages, cfg.MessageTTL, cfg.MessageFreshWindow, nil)

	var extractor *youtube.TokenExtractor
	if browser != nil {
		extractor = youtube.NewTokenExtractor(client, browser, tokens, counters, nil)
	} else {
		extractor = youtube.NewTokenExtractor(client, nil, tokens, counters, nil)
	}
	poller := youtube.NewChatPoller(client, counters)
	normalizer := youtube.NewNormalizer(counters)
	scraper := youtube.NewChannelScraper(client, counters)

	// Aggregation must outlive a worst-case browser extraction plus one poll;
	// the static-only endpoints get a two-fetch budget.
	chatTimeout := cfg.NavTimeout + cfg.SelectorTimeout + 2*cfg.FetchTimeout
	fetchTimeout := 2*cfg.FetchTimeout + 5*time.Second

	chatSvc := service.NewLiveChatService(extractor, poller, normalizer, store, chatTimeout, nil)
	metaSvc := service.NewMetadataService(youtube.NewMetadataFetcher(client), fetchTimeout)
	channelSvc := service.NewChannelService(scraper, channels, fetchTimeout)

	handler.InitMetrics(counters, browser, tokens, channels, store)

	h := &router.Handlers{
		LiveChat: handler.NewLiveChatHandler(chatSvc),
		Metadata: handler.NewMetadataHandler(metaSvc),
		Channel:  handler.NewChannelHandler(channelSvc),
		Stats:    handler.NewStatsHandler(counters, tokens, channels, store),
		Health:   handler.NewHealthHandler(browser, tokens, channels, store),
	}
	if cfg.DebugScreenshotDir != "" {
		h.Debug = handler.NewDebugHandler(cfg.DebugScreenshotDir)
	}

	app := fiber.New(fiber.Config{
		AppName:      "YouTube Analytics API",
		ServerHeader: "youtube-analytics",
	})
	router.Setup(app, h, cfg.CORSOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := service.NewSweepWorker(tokens, channels, store, cfg.SweepInterval)
	go sweeper.Start(ctx)

	go func() {
		log.Printf("youtube-analytics backend starting on :%s (env=%s)", cfg.Port, cfg.Environment)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	sweeper.Stop()
	if browser != nil {
		browser.Shutdown()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
