package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lumabot/wabridge/internal/bridge"
	httpmiddleware "github.com/lumabot/wabridge/internal/http/middleware"
	"github.com/lumabot/wabridge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger
	Bridge *bridge.Handler
	Stats  *bridge.StatsHandler

	// MetricsHandler serves GET /metrics when set (promhttp).
	MetricsHandler http.Handler

	// Webhook rate limiting (optional, disabled when rate is zero).
	WebhookRateLimit float64
	WebhookRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.Bridge == nil {
		panic("router: bridge handler required")
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", cfg.Bridge.HealthCheck)

	r.Get("/whatsapp", cfg.Bridge.HandleVerification)
	if cfg.WebhookRateLimit > 0 {
		r.With(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst)).
			Post("/whatsapp", cfg.Bridge.HandleEvents)
	} else {
		r.Post("/whatsapp", cfg.Bridge.HandleEvents)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Stats != nil {
		r.Get("/stats", cfg.Stats.GetStats)
	}

	return r
}
