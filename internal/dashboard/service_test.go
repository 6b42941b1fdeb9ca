package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
	"argus-backend/internal/cache/warming"
	apperrors "argus-backend/internal/errors"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error { return nil }

func (s *memStore) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	return 0, nil
}

func (s *memStore) Ping(ctx context.Context) error { return nil }

// fakeSource counts fetches and returns canned payloads.
type fakeSource struct {
	mu           sync.Mutex
	overviewHits int
	failOverview bool
}

func (f *fakeSource) FetchOverview(ctx context.Context, userID string) (*OverviewSnapshot, error) {
	f.mu.Lock()
	f.overviewHits++
	fail := f.failOverview
	f.mu.Unlock()
	if fail {
		return nil, apperrors.NewComputeError("fetch overview", nil)
	}
	return &OverviewSnapshot{UserID: userID, TotalAnalyses: 12, DetectionsFound: 3}, nil
}

func (f *fakeSource) FetchAnalytics(ctx context.Context, scope, period string) (*AnalyticsReport, error) {
	return &AnalyticsReport{Scope: scope, Period: period, TotalResults: 40}, nil
}

func (f *fakeSource) FetchPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	return &UserPreferences{UserID: userID, Theme: "dark"}, nil
}

func (f *fakeSource) FetchWidget(ctx context.Context, userID, widgetType string) (*WidgetPayload, error) {
	return &WidgetPayload{WidgetType: widgetType, UserID: userID}, nil
}

func (f *fakeSource) FetchSystemStatus(ctx context.Context) (*SystemStatus, error) {
	return &SystemStatus{Healthy: true, WorkersOnline: 4}, nil
}

func (f *fakeSource) FetchPerformance(ctx context.Context, period string) (*PerformanceReport, error) {
	return &PerformanceReport{Period: period, AvgLatencyMs: 42}, nil
}

func (f *fakeSource) FetchRecentActivity(ctx context.Context, userID string) (*ActivityFeed, error) {
	return &ActivityFeed{UserID: userID}, nil
}

func (f *fakeSource) FetchNotifications(ctx context.Context, userID string) (*NotificationList, error) {
	return &NotificationList{UserID: userID, UnreadCount: 2}, nil
}

func (f *fakeSource) FetchAggregated(ctx context.Context, period string) (*AggregatedReport, error) {
	return &AggregatedReport{Period: period, TotalUsers: 100}, nil
}

func (f *fakeSource) overviewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overviewHits
}

func newTestCache(t *testing.T) (*Cache, *fakeSource, *memStore) {
	t.Helper()
	store := newMemStore()
	reg := cache.NewCodecRegistry()
	RegisterCodecs(reg)
	coord := cache.NewCoordinator(store, reg, zap.NewNop())
	source := &fakeSource{}
	return NewCache(coord, source, zap.NewNop()), source, store
}

func TestOverviewCachesTypedPayload(t *testing.T) {
	c, source, store := newTestCache(t)

	first, err := c.Overview(context.Background(), "user-42")
	require.NoError(t, err)
	assert.Equal(t, "user-42", first.UserID)
	assert.Equal(t, 12, first.TotalAnalyses)

	// Second read is a hit: the source is not consulted again and the
	// decoded payload keeps its type.
	second, err := c.Overview(context.Background(), "user-42")
	require.NoError(t, err)
	assert.Equal(t, first.TotalAnalyses, second.TotalAnalyses)
	assert.Equal(t, 1, source.overviewCount())

	_, cached := store.data["dash:overview:user:user-42"]
	assert.True(t, cached)
}

func TestOverviewPropagatesSourceError(t *testing.T) {
	c, source, _ := newTestCache(t)
	source.failOverview = true

	_, err := c.Overview(context.Background(), "user-42")
	assert.True(t, apperrors.IsCompute(err))
}

func TestAnalyticsKeyedByScopeAndPeriod(t *testing.T) {
	c, _, store := newTestCache(t)

	global, err := c.Analytics(context.Background(), "", "30d")
	require.NoError(t, err)
	assert.Empty(t, global.Scope)

	scoped, err := c.Analytics(context.Background(), "user-42", "30d")
	require.NoError(t, err)
	assert.Equal(t, "user-42", scoped.Scope)

	_, hasGlobal := store.data["dash:analytics:30d"]
	_, hasScoped := store.data["dash:analytics:user:user-42:30d"]
	assert.True(t, hasGlobal)
	assert.True(t, hasScoped)
}

func TestSystemStatusIsGlobal(t *testing.T) {
	c, _, store := newTestCache(t)

	status, err := c.SystemStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)

	_, ok := store.data["dash:system_status"]
	assert.True(t, ok)
}

func TestComputeForCoversEveryClass(t *testing.T) {
	c, _, _ := newTestCache(t)

	for _, class := range cache.Classes() {
		compute := c.ComputeFor(class, "user-42", warming.Params{SubDimension: "7d"})
		value, _, err := compute(context.Background())
		require.NoError(t, err, "class %s", class)
		assert.NotNil(t, value, "class %s", class)
	}
}

func TestComputeForUnknownClassFails(t *testing.T) {
	c, _, _ := newTestCache(t)

	compute := c.ComputeFor(cache.Class("bogus"), "", warming.Params{})
	_, _, err := compute(context.Background())
	assert.True(t, apperrors.IsValidation(err))
}
