package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"airwatch-platform/internal/config"
	"airwatch-platform/internal/generator"
	"airwatch-platform/internal/handlers"
	"airwatch-platform/internal/insight"
	"airwatch-platform/internal/repository"
	"airwatch-platform/internal/services"
	"airwatch-platform/pkg/database"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airwatch-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting AirWatch API server", logging.Fields{
		"version":     version,
		"environment": cfg.Environment,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"insights":    cfg.Insight.BaseURL != "",
	})

	metricsCollector := metrics.NewCollector("airwatch")

	dbConfig := cfg.DB()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, dbConfig, "up", logger); err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to migrate database", logging.Fields{}, err)
		}
	}

	db, err := database.Open(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	repo := repository.NewAirQualityRepository(db, logger, metricsCollector)

	var remote insight.Generator
	if cfg.Insight.BaseURL != "" {
		remote = insight.NewOllamaGenerator(insight.OllamaConfig{
			BaseURL: cfg.Insight.BaseURL,
			Model:   cfg.Insight.Model,
			Timeout: cfg.Insight.Timeout,
		}, nil)
	}
	insights := insight.NewFallbackGenerator(remote, insight.NewRuleGenerator(), logger, metricsCollector)

	airQualityService := services.NewAirQualityService(repo, generator.New(), insights, logger, metricsCollector)
	profileService := services.NewProfileService(repo, logger, metricsCollector)

	handler := handlers.NewAirQualityHandler(
		airQualityService,
		profileService,
		handlers.BuildInfo{Environment: cfg.Environment, Version: version},
		logger,
		metricsCollector,
	)

	router := mux.NewRouter()
	router.Use(handlers.RequestIDMiddleware)
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		router.Use(handlers.RateLimitMiddleware(limiter, metricsCollector))
	}

	handler.RegisterRoutes(router)
	handler.RegisterDocsRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	// preflight requests match no route, so CORS wraps the router itself
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handlers.CORSMiddleware(cfg.CORS.AllowedOrigins)(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
			"docs":    "/api/docs",
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
