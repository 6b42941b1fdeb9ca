// Package dashboard defines the typed payloads served by the dashboard
// cache and the typed facade application code calls instead of touching
// the coordinator directly.
package dashboard

import "time"

// OverviewSnapshot is the landing-page summary for one user.
type OverviewSnapshot struct {
	UserID           string    `json:"user_id"`
	TotalAnalyses    int       `json:"total_analyses"`
	DetectionsFound  int       `json:"detections_found"`
	DetectionRatePct float64   `json:"detection_rate_pct"`
	LastAnalysisAt   time.Time `json:"last_analysis_at"`
	PendingBatches   int       `json:"pending_batches"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// AnalyticsReport aggregates detection outcomes over one time period.
type AnalyticsReport struct {
	Scope        string             `json:"scope,omitempty"` // empty means global
	Period       string             `json:"period"`          // e.g. 30d, 7d, 1d
	TotalResults int                `json:"total_results"`
	ByVerdict    map[string]int     `json:"by_verdict"`
	ByModel      map[string]int     `json:"by_model"`
	DailyCounts  []DailyCount       `json:"daily_counts"`
	AvgScores    map[string]float64 `json:"avg_scores"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// DailyCount is one day's detection volume inside an AnalyticsReport.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// UserPreferences holds per-user dashboard settings.
type UserPreferences struct {
	UserID          string   `json:"user_id"`
	Theme           string   `json:"theme"`
	DefaultPeriod   string   `json:"default_period"`
	VisibleWidgets  []string `json:"visible_widgets"`
	AlertsEnabled   bool     `json:"alerts_enabled"`
	DigestFrequency string   `json:"digest_frequency"`
}

// WidgetPayload is the rendered data for one dashboard widget.
type WidgetPayload struct {
	WidgetType  string         `json:"widget_type"`
	UserID      string         `json:"user_id,omitempty"`
	Data        map[string]any `json:"data"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// SystemStatus reports the health of the detection pipeline.
type SystemStatus struct {
	Healthy        bool      `json:"healthy"`
	ActiveModels   []string  `json:"active_models"`
	QueueDepth     int       `json:"queue_depth"`
	WorkersOnline  int       `json:"workers_online"`
	LastIncidentAt time.Time `json:"last_incident_at,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

// PerformanceReport summarizes pipeline throughput and latency over one
// time period.
type PerformanceReport struct {
	Period          string    `json:"period"` // e.g. 1h, 1d, 7d
	AnalysesPerHour float64   `json:"analyses_per_hour"`
	AvgLatencyMs    float64   `json:"avg_latency_ms"`
	P95LatencyMs    float64   `json:"p95_latency_ms"`
	ErrorRatePct    float64   `json:"error_rate_pct"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ActivityFeed lists a user's most recent analyses.
type ActivityFeed struct {
	UserID  string          `json:"user_id"`
	Entries []ActivityEntry `json:"entries"`
}

// ActivityEntry is one row in the activity feed.
type ActivityEntry struct {
	ResultID   string    `json:"result_id"`
	FileName   string    `json:"file_name"`
	Verdict    string    `json:"verdict"`
	Confidence float64   `json:"confidence"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// NotificationList holds a user's unread notifications.
type NotificationList struct {
	UserID      string         `json:"user_id"`
	UnreadCount int            `json:"unread_count"`
	Items       []Notification `json:"items"`
}

// Notification is one alert or informational message for a user.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// AggregatedReport is the cross-user analytics rollup shared by every
// dashboard.
type AggregatedReport struct {
	Period        string         `json:"period"`
	TotalUsers    int            `json:"total_users"`
	TotalAnalyses int            `json:"total_analyses"`
	ByVerdict     map[string]int `json:"by_verdict"`
	TopModels     []string       `json:"top_models"`
	GeneratedAt   time.Time      `json:"generated_at"`
}
