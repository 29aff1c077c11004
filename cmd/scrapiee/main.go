package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/scrapiee/scrapiee/internal/api"
	"github.com/scrapiee/scrapiee/internal/browser"
	"github.com/scrapiee/scrapiee/internal/cache"
	"github.com/scrapiee/scrapiee/internal/config"
	"github.com/scrapiee/scrapiee/internal/events"
	"github.com/scrapiee/scrapiee/internal/extractor"
	"github.com/scrapiee/scrapiee/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Browser pool
	pool := browser.NewManager(&browser.Options{
		Headless:        cfg.Browser.Headless,
		DefaultTimeout:  cfg.Scraper.DefaultTimeout,
		UserAgent:       cfg.Browser.UserAgent,
		ViewportWidth:   cfg.Browser.ViewportWidth,
		ViewportHeight:  cfg.Browser.ViewportHeight,
		AcceptLanguage:  cfg.Browser.AcceptLanguage,
		TimezoneID:      cfg.Browser.TimezoneID,
		Locale:          cfg.Browser.Locale,
		BlockResources:  cfg.Browser.BlockResources,
		MaxStartRetries: cfg.Browser.MaxStartRetries,
	}, cfg.Scraper.MaxConcurrentRequests, logger)
	defer pool.Close()

	// A cold browser makes the first request pay the launch cost; warm it
	// up front but keep serving even if the launch needs a later retry.
	if err := pool.Warmup(); err != nil {
		logger.Warn("browser warmup failed, will retry on first request", "error", err)
	}

	// Optional Redis event stream
	var redisClient events.RedisClient
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		redisClient = client
	}
	publisher := events.NewPublisher(redisClient, cfg.Redis.Stream, logger)
	defer publisher.Close()

	// Services
	scrapeService := scraper.NewService(pool, extractor.New(), logger)
	respCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer respCache.Stop()

	handlers := api.NewHandlers(scrapeService, pool, respCache, publisher, cfg.Scraper.DefaultTimeout, logger)
	limiter := api.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	defer limiter.Stop()
	router := api.NewRouter(handlers, limiter, cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting",
		"addr", server.Addr,
		"max_concurrent", cfg.Scraper.MaxConcurrentRequests,
		"events_enabled", publisher.Enabled(),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
