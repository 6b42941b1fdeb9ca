package http

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"argus-backend/internal/cache"
	"argus-backend/internal/cache/invalidation"
	"argus-backend/internal/cache/metrics"
	"argus-backend/internal/cache/warming"
)

// CacheHandler exposes the operational surface of the caching subsystem:
// health summaries, alerts, manual invalidation, and warming.
type CacheHandler struct {
	collector     *metrics.Collector
	invalidations *invalidation.Router
	warmer        *warming.Warmer
	window        time.Duration
	logger        *zap.Logger
}

// NewCacheHandler creates the cache operations handler. window is the
// default metrics window used when a request does not specify one.
func NewCacheHandler(
	collector *metrics.Collector,
	invalidations *invalidation.Router,
	warmer *warming.Warmer,
	window time.Duration,
	logger *zap.Logger,
) *CacheHandler {
	return &CacheHandler{
		collector:     collector,
		invalidations: invalidations,
		warmer:        warmer,
		window:        window,
		logger:        logger,
	}
}

func (h *CacheHandler) windowFrom(r *http.Request) time.Duration {
	if raw := r.URL.Query().Get("window"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return h.window
}

// Summary handles GET /cache/summary.
func (h *CacheHandler) Summary(w http.ResponseWriter, r *http.Request) {
	window := h.windowFrom(r)
	summary := h.collector.Summary(window)
	health := metrics.Classify(summary)

	respondJSON(w, http.StatusOK, map[string]any{
		"window":  window.String(),
		"summary": summary,
		"health":  health,
	})
}

// Alerts handles GET /cache/alerts.
func (h *CacheHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.collector.Alerts(h.windowFrom(r))
	respondJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

type invalidateRequest struct {
	Trigger string `json:"trigger"`
	Scope   string `json:"scope,omitempty"`
}

// Invalidate handles POST /cache/invalidate.
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	trigger := invalidation.Trigger(req.Trigger)
	if len(h.invalidations.Rules(trigger)) == 0 {
		respondError(w, http.StatusBadRequest, "unknown invalidation trigger: "+req.Trigger)
		return
	}

	result := h.invalidations.Invalidate(r.Context(), trigger, req.Scope)

	status := http.StatusOK
	if result.Failed > 0 {
		// Partial failure still reports per-rule detail.
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, result)
}

type warmRequest struct {
	Class        string `json:"class"`
	Scope        string `json:"scope,omitempty"`
	SubDimension string `json:"sub_dimension,omitempty"`
	Immediate    bool   `json:"immediate,omitempty"`
}

// Warm handles POST /cache/warm. By default the task is queued for the
// next warming cycle; immediate requests run synchronously.
func (h *CacheHandler) Warm(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	class := cache.Class(req.Class)
	if !class.Valid() {
		respondError(w, http.StatusBadRequest, "unknown cache class: "+req.Class)
		return
	}
	params := warming.Params{SubDimension: req.SubDimension}

	if req.Immediate {
		if err := h.warmer.WarmOnDemand(r.Context(), class, req.Scope, params); err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"warmed": true})
		return
	}

	id, queued := h.warmer.Enqueue(class, req.Scope, class.DefaultPriority(), params)
	if !queued {
		respondJSON(w, http.StatusOK, map[string]any{"queued": false})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"queued":  true,
		"task_id": id.String(),
	})
}

type warmLoginRequest struct {
	UserID string `json:"user_id"`
}

// WarmLogin handles POST /cache/warm/login, refreshing the entries a
// fresh login renders first.
func (h *CacheHandler) WarmLogin(w http.ResponseWriter, r *http.Request) {
	var req warmLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	warmed := h.warmer.WarmUserLogin(r.Context(), req.UserID)
	respondJSON(w, http.StatusOK, map[string]any{"warmed_classes": warmed})
}
