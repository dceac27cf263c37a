package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/quoteline/autobody-ai-platform/internal/http/middleware"
	"github.com/quoteline/autobody-ai-platform/internal/messaging"
	"github.com/quoteline/autobody-ai-platform/internal/shops"
	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	Directory        *shops.Directory
	MessagingHandler *messaging.Handler
	MetricsHandler   http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.MessagingHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(webhook chi.Router) {
		webhook.Use(httpmiddleware.ResolveShop(cfg.Directory, cfg.Logger))
		webhook.Post("/sms-webhook", cfg.MessagingHandler.SMSWebhook)
	})

	return r
}
