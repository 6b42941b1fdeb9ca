package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"argus-backend/internal/dashboard"
)

// DashboardHandler serves the cached dashboard payloads.
type DashboardHandler struct {
	cache  *dashboard.Cache
	logger *zap.Logger
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(cache *dashboard.Cache, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{cache: cache, logger: logger}
}

const defaultPeriod = "30d"

// Overview handles GET /dashboard/{userID}/overview.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	snapshot, err := h.cache.Overview(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// Activity handles GET /dashboard/{userID}/activity.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	feed, err := h.cache.RecentActivity(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, feed)
}

// Notifications handles GET /dashboard/{userID}/notifications.
func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	list, err := h.cache.Notifications(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Preferences handles GET /dashboard/{userID}/preferences.
func (h *DashboardHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	prefs, err := h.cache.Preferences(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// Widget handles GET /dashboard/{userID}/widgets/{widgetType}.
func (h *DashboardHandler) Widget(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	widgetType := chi.URLParam(r, "widgetType")
	payload, err := h.cache.Widget(r.Context(), userID, widgetType)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// Analytics handles GET /analytics. An empty scope query parameter yields
// the global report.
func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	period := r.URL.Query().Get("period")
	if period == "" {
		period = defaultPeriod
	}
	report, err := h.cache.Analytics(r.Context(), scope, period)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Aggregated handles GET /analytics/aggregated.
func (h *DashboardHandler) Aggregated(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = defaultPeriod
	}
	report, err := h.cache.Aggregated(r.Context(), period)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// SystemStatus handles GET /system/status.
func (h *DashboardHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.cache.SystemStatus(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Performance handles GET /system/performance.
func (h *DashboardHandler) Performance(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1h"
	}
	report, err := h.cache.Performance(r.Context(), period)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
