package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/quoteline/autobody-ai-platform/internal/api/router"
	"github.com/quoteline/autobody-ai-platform/internal/calendar"
	appconfig "github.com/quoteline/autobody-ai-platform/internal/config"
	"github.com/quoteline/autobody-ai-platform/internal/conversation"
	"github.com/quoteline/autobody-ai-platform/internal/estimate"
	"github.com/quoteline/autobody-ai-platform/internal/messaging"
	"github.com/quoteline/autobody-ai-platform/internal/observability/metrics"
	"github.com/quoteline/autobody-ai-platform/internal/session"
	"github.com/quoteline/autobody-ai-platform/internal/shops"
	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

func main() {
	// Load .env in local development; ignored when the file is absent.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting autobody-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	directory, err := shops.Load(cfg.ShopsJSON)
	if err != nil {
		logger.Error("failed to load shop directory", "error", err)
		os.Exit(1)
	}
	logger.Info("shop directory loaded", "mode", directory.Mode().String(), "shops", directory.Len())

	location, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Error("invalid business timezone", "timezone", cfg.BusinessTimezone, "error", err)
		os.Exit(1)
	}

	// Session store: Redis when configured, in-process memory otherwise.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		sessions = session.NewRedisStore(redis.NewClient(opts), cfg.SessionTTL)
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		logger.Warn("REDIS_ADDR not set, sessions are in-memory and not shared across instances")
	}

	// Estimator: OpenAI primary, Gemini fallback when both are configured.
	// With no keys at all the service still replies with conservative
	// default estimates.
	var estimatorClient estimate.Client
	if cfg.OpenAIAPIKey != "" {
		estimatorClient = estimate.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EstimatorModel)
		logger.Info("estimator configured", "provider", "openai", "model", cfg.EstimatorModel)
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := estimate.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to initialize gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		if estimatorClient != nil {
			estimatorClient = estimate.NewFallbackClient(estimatorClient, gemini, logger)
			logger.Info("estimator fallback configured", "provider", "gemini", "model", cfg.GeminiModel)
		} else {
			estimatorClient = gemini
			logger.Info("estimator configured", "provider", "gemini", "model", cfg.GeminiModel)
		}
	}
	if estimatorClient == nil {
		logger.Warn("no estimator API key set, replies will use default estimates")
	}
	estimator := estimate.NewService(estimatorClient, cfg.EstimatorTimeout, logger)

	// Calendar booking is optional; without credentials confirmations are
	// still sent, just without an event behind them.
	var booker calendar.Booker
	if cfg.GoogleServiceAccountJSON != "" {
		gb, err := calendar.NewGoogleBooker(context.Background(), cfg.GoogleServiceAccountJSON, cfg.BusinessTimezone)
		if err != nil {
			logger.Error("failed to initialize calendar client", "error", err)
			os.Exit(1)
		}
		booker = gb
	} else {
		logger.Warn("GOOGLE_SERVICE_ACCOUNT_JSON not set, bookings will be skipped")
	}

	registry := prometheus.NewRegistry()
	conversationMetrics := metrics.NewConversationMetrics(registry)

	engine := conversation.NewEngine(conversation.Config{
		Sessions:  sessions,
		Estimator: estimator,
		Booker:    booker,
		SlotCount: cfg.SlotCount,
		Location:  location,
		Logger:    logger,
		Metrics:   conversationMetrics,
	})

	// Initialize handlers
	messagingHandler := messaging.NewHandler(engine, cfg.TwilioWebhookSecret, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:           logger,
		Directory:        directory,
		MessagingHandler: messagingHandler,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
