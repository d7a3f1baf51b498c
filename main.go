package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/cache"
	"github.com/Alirezastar2/utmkit-sub001/clicklog"
	"github.com/Alirezastar2/utmkit-sub001/config"
	"github.com/Alirezastar2/utmkit-sub001/domains"
	"github.com/Alirezastar2/utmkit-sub001/handler"
	appLogger "github.com/Alirezastar2/utmkit-sub001/logger"
	appMetrics "github.com/Alirezastar2/utmkit-sub001/metrics"
	"github.com/Alirezastar2/utmkit-sub001/middleware"
	redisClient "github.com/Alirezastar2/utmkit-sub001/redis"
	"github.com/Alirezastar2/utmkit-sub001/report"
	"github.com/Alirezastar2/utmkit-sub001/resolver"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Initialize Redis client and attribution store
	rdb := redisClient.NewClient(cfg.Redis)
	attributionStore := store.NewRedisStore(rdb, time.Duration(cfg.Features.TombstoneTTLDays)*24*time.Hour)

	// Initialize cache (if enabled)
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	engineMetrics := appMetrics.New()

	// Engine components
	shortCodeResolver := resolver.New(attributionStore, cacheClient, cfg.WebServer.CanonicalDomain)
	clickRecorder := clicklog.New(attributionStore, cfg.Recorder, engineMetrics)
	domainVerifier := domains.New(attributionStore, net.DefaultResolver, cfg.DNS, engineMetrics)
	reportAggregator := report.New(attributionStore)

	// Handler with dependency injection
	h := handler.New(attributionStore, cacheClient, shortCodeResolver, clickRecorder,
		domainVerifier, reportAggregator, cfg, engineMetrics)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// Register routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", h.CacheMetrics).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api/links", h.CreateLink).Methods("POST")
	r.HandleFunc("/api/links/{shortCode}", h.DeleteLink).Methods("DELETE")
	r.HandleFunc("/api/domains", h.RegisterDomain).Methods("POST")
	r.HandleFunc("/api/domains", h.ListDomains).Methods("GET")
	r.HandleFunc("/api/domains/{domainID}/verify", h.VerifyDomain).Methods("POST")
	r.HandleFunc("/api/reports/{reportID}/generate", h.GenerateReport).Methods("POST")
	r.HandleFunc("/api/analytics", h.Analytics).Methods("GET")
	r.HandleFunc("/qr/{shortCode}", h.GenerateQR).Methods("GET")
	r.HandleFunc("/l/{shortCode}", h.Redirect).Methods("GET")

	// Redirect route (must be last to avoid conflicts)
	r.HandleFunc("/{shortCode}", h.Redirect).Methods("GET")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("canonical_domain", cfg.WebServer.CanonicalDomain).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Drain queued clicks before closing the store connection
	clickRecorder.Close()

	if cacheClient != nil {
		cacheClient.Close()
	}

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}
