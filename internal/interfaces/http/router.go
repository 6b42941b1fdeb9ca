// Package http wires the chi router for the dashboard cache service.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
)

// Router assembles the HTTP surface from its handlers.
type Router struct {
	dashboards *DashboardHandler
	cacheOps   *CacheHandler
	store      cache.Store
	registry   *prometheus.Registry
	logger     *zap.Logger
}

// NewRouter creates the router.
func NewRouter(
	dashboards *DashboardHandler,
	cacheOps *CacheHandler,
	store cache.Store,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Router {
	return &Router{
		dashboards: dashboards,
		cacheOps:   cacheOps,
		store:      store,
		registry:   registry,
		logger:     logger,
	}
}

// Setup configures middleware and routes.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.argus.dev"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.health)
	if rt.registry != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/dashboard/{userID}", func(r chi.Router) {
			r.Get("/overview", rt.dashboards.Overview)
			r.Get("/activity", rt.dashboards.Activity)
			r.Get("/notifications", rt.dashboards.Notifications)
			r.Get("/preferences", rt.dashboards.Preferences)
			r.Get("/widgets/{widgetType}", rt.dashboards.Widget)
		})

		r.Get("/analytics", rt.dashboards.Analytics)
		r.Get("/analytics/aggregated", rt.dashboards.Aggregated)
		r.Get("/system/status", rt.dashboards.SystemStatus)
		r.Get("/system/performance", rt.dashboards.Performance)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/summary", rt.cacheOps.Summary)
			r.Get("/alerts", rt.cacheOps.Alerts)
			r.Post("/invalidate", rt.cacheOps.Invalidate)
			r.Post("/warm", rt.cacheOps.Warm)
			r.Post("/warm/login", rt.cacheOps.WarmLogin)
		})
	})

	return router
}

// health reports liveness plus the cache backend's reachability. An
// unreachable backend is degraded, not down: the service still serves
// through the compute path.
func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]any{"status": "ok", "cache": "ok"}
	if err := rt.store.Ping(ctx); err != nil {
		status["cache"] = "unreachable"
		rt.logger.Warn("health check: cache backend unreachable", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, status)
}
