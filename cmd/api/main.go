package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumabot/wabridge/internal/api/router"
	"github.com/lumabot/wabridge/internal/app/bootstrap"
	"github.com/lumabot/wabridge/internal/bridge"
	appconfig "github.com/lumabot/wabridge/internal/config"
	"github.com/lumabot/wabridge/internal/observability/metrics"
	"github.com/lumabot/wabridge/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting wabridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Session store: Redis when configured and reachable, memory otherwise
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	sessions := bootstrap.BuildSessionStore(redisClient, cfg, logger)

	// Gemini agent
	runner, geminiClient, err := bootstrap.BuildAgentRunner(ctx, cfg, sessions, logger)
	if err != nil {
		logger.Error("failed to build agent", "error", err)
		os.Exit(1)
	}
	defer geminiClient.Close()

	// WhatsApp Cloud API client and bridge pipeline
	waClient := bootstrap.BuildWhatsAppClient(cfg)
	bridgeMetrics := metrics.NewBridgeMetrics(nil)
	service := bridge.NewService(bridge.NewTrigger(cfg.TriggerWord), runner, waClient,
		bridge.WithLogger(logger),
		bridge.WithMetrics(bridgeMetrics),
	)
	bridgeHandler := bridge.NewHandler(cfg.VerifyToken, cfg.WhatsAppAppSecret, service,
		bridge.WithHandlerMetrics(bridgeMetrics),
	)

	// Setup router
	routerCfg := &router.Config{
		Logger:           logger,
		Bridge:           bridgeHandler,
		Stats:            bridge.NewStatsHandler(nil, logger),
		MetricsHandler:   promhttp.Handler(),
		WebhookRateLimit: cfg.WebhookRateLimit,
		WebhookRateBurst: cfg.WebhookRateBurst,
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
		logger.Info("server listening", "addr", srv.Addr, "trigger_word", cfg.TriggerWord)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight reply pipelines finish before exiting.
	service.Wait()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
