package dashboard

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// StaticSource is a self-contained Source producing synthetic payloads.
// It backs development and demo deployments where the detection analytics
// service is not wired in. The warmer fans fetches out across goroutines,
// and rand.Rand is not safe for concurrent use, so every draw holds the
// mutex.
type StaticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStaticSource creates a deterministic synthetic source.
func NewStaticSource(seed int64) *StaticSource {
	return &StaticSource{rng: rand.New(rand.NewSource(seed))}
}

var _ Source = (*StaticSource)(nil)

func (s *StaticSource) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *StaticSource) float64n() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *StaticSource) FetchOverview(ctx context.Context, userID string) (*OverviewSnapshot, error) {
	total := 50 + s.intn(200)
	found := s.intn(total)
	return &OverviewSnapshot{
		UserID:           userID,
		TotalAnalyses:    total,
		DetectionsFound:  found,
		DetectionRatePct: float64(found) / float64(total) * 100,
		LastAnalysisAt:   time.Now().Add(-time.Duration(s.intn(120)) * time.Minute),
		PendingBatches:   s.intn(3),
		GeneratedAt:      time.Now(),
	}, nil
}

func (s *StaticSource) FetchAnalytics(ctx context.Context, scope, period string) (*AnalyticsReport, error) {
	return &AnalyticsReport{
		Scope:        scope,
		Period:       period,
		TotalResults: 100 + s.intn(900),
		ByVerdict: map[string]int{
			"authentic":    60 + s.intn(40),
			"manipulated":  10 + s.intn(30),
			"inconclusive": s.intn(10),
		},
		ByModel:     map[string]int{"ensemble-v3": 80, "frequency-v2": 20},
		AvgScores:   map[string]float64{"confidence": 0.73 + s.float64n()*0.2},
		DailyCounts: s.dailyCounts(period),
		GeneratedAt: time.Now(),
	}, nil
}

func (s *StaticSource) dailyCounts(period string) []DailyCount {
	days := 7
	if period == "30d" {
		days = 30
	} else if period == "1d" {
		days = 1
	}
	counts := make([]DailyCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		counts = append(counts, DailyCount{
			Date:  time.Now().AddDate(0, 0, -i).Format("2006-01-02"),
			Count: s.intn(50),
		})
	}
	return counts
}

func (s *StaticSource) FetchPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	return &UserPreferences{
		UserID:          userID,
		Theme:           "dark",
		DefaultPeriod:   "7d",
		VisibleWidgets:  []string{"threat_map", "verdict_breakdown", "recent_activity"},
		AlertsEnabled:   true,
		DigestFrequency: "daily",
	}, nil
}

func (s *StaticSource) FetchWidget(ctx context.Context, userID, widgetType string) (*WidgetPayload, error) {
	return &WidgetPayload{
		WidgetType:  widgetType,
		UserID:      userID,
		Data:        map[string]any{"series": []int{s.intn(10), s.intn(10), s.intn(10)}},
		GeneratedAt: time.Now(),
	}, nil
}

func (s *StaticSource) FetchSystemStatus(ctx context.Context) (*SystemStatus, error) {
	return &SystemStatus{
		Healthy:       true,
		ActiveModels:  []string{"ensemble-v3", "frequency-v2", "artifact-v1"},
		QueueDepth:    s.intn(20),
		WorkersOnline: 4,
		CheckedAt:     time.Now(),
	}, nil
}

func (s *StaticSource) FetchPerformance(ctx context.Context, period string) (*PerformanceReport, error) {
	return &PerformanceReport{
		Period:          period,
		AnalysesPerHour: 120 + s.float64n()*80,
		AvgLatencyMs:    800 + s.float64n()*400,
		P95LatencyMs:    2500 + s.float64n()*1000,
		ErrorRatePct:    s.float64n() * 2,
		GeneratedAt:     time.Now(),
	}, nil
}

func (s *StaticSource) FetchRecentActivity(ctx context.Context, userID string) (*ActivityFeed, error) {
	entries := make([]ActivityEntry, 0, 5)
	for i := 0; i < 5; i++ {
		entries = append(entries, ActivityEntry{
			ResultID:   fmt.Sprintf("res-%06d", s.intn(1000000)),
			FileName:   fmt.Sprintf("upload-%d.mp4", i+1),
			Verdict:    []string{"authentic", "manipulated", "inconclusive"}[s.intn(3)],
			Confidence: 0.5 + s.float64n()*0.5,
			AnalyzedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return &ActivityFeed{UserID: userID, Entries: entries}, nil
}

func (s *StaticSource) FetchNotifications(ctx context.Context, userID string) (*NotificationList, error) {
	items := []Notification{
		{
			ID:        fmt.Sprintf("ntf-%06d", s.intn(1000000)),
			Kind:      "analysis_complete",
			Message:   "Your batch analysis finished",
			CreatedAt: time.Now().Add(-30 * time.Minute),
		},
	}
	return &NotificationList{UserID: userID, UnreadCount: len(items), Items: items}, nil
}

func (s *StaticSource) FetchAggregated(ctx context.Context, period string) (*AggregatedReport, error) {
	return &AggregatedReport{
		Period:        period,
		TotalUsers:    500 + s.intn(500),
		TotalAnalyses: 10000 + s.intn(50000),
		ByVerdict:     map[string]int{"authentic": 70, "manipulated": 25, "inconclusive": 5},
		TopModels:     []string{"ensemble-v3", "frequency-v2"},
		GeneratedAt:   time.Now(),
	}, nil
}
