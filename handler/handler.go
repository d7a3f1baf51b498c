package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/cache"
	"github.com/Alirezastar2/utmkit-sub001/clicklog"
	"github.com/Alirezastar2/utmkit-sub001/config"
	"github.com/Alirezastar2/utmkit-sub001/domains"
	"github.com/Alirezastar2/utmkit-sub001/metrics"
	"github.com/Alirezastar2/utmkit-sub001/report"
	"github.com/Alirezastar2/utmkit-sub001/resolver"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/rs/zerolog/log"
)

// Handler wires the HTTP surface to the engine components.
type Handler struct {
	store      store.Store
	cache      *cache.Cache
	resolver   *resolver.Resolver
	recorder   *clicklog.Recorder
	verifier   *domains.Verifier
	aggregator *report.Aggregator
	config     config.Config
	metrics    *metrics.Metrics
	baseURL    string
}

// New creates the handler with all dependencies injected.
func New(st store.Store, c *cache.Cache, res *resolver.Resolver, rec *clicklog.Recorder,
	ver *domains.Verifier, agg *report.Aggregator, cfg config.Config, m *metrics.Metrics) *Handler {

	// Use configured base_url if provided, otherwise construct from scheme and canonical domain
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s", cfg.WebServer.Scheme, cfg.WebServer.CanonicalDomain)
	}
	return &Handler{
		store:      st,
		cache:      c,
		resolver:   res,
		recorder:   rec,
		verifier:   ver,
		aggregator: agg,
		config:     cfg,
		metrics:    m,
		baseURL:    baseURL,
	}
}

// opCtx derives the per-operation store timeout from the request context.
func (h *Handler) opCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Store health check failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "unhealthy",
			"store":  "unavailable",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"store":  "connected",
	})
}

// CacheMetrics handles GET /cache/metrics.
func (h *Handler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.config.Cache.Enabled || h.cache == nil {
		SendJSONError(w, http.StatusServiceUnavailable, errors.New("cache is disabled"), "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, h.cache.GetMetricsSnapshot())
}
