package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "argus-backend/internal/errors"
)

// fakeStore is an in-memory Store double that records calls.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration

	getErr error
	setErr error

	setCalls int
	getCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	data, ok := s.entries[key]
	return data, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *fakeStore) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	return 0, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

type report struct {
	Total int `json:"total"`
}

func testRegistry() *CodecRegistry {
	reg := NewCodecRegistry()
	reg.Register(ClassAnalytics, JSONCodec[report]{})
	reg.Register(ClassOverview, JSONCodec[report]{})
	return reg
}

func countingCompute(value *report, calls *int) ComputeFunc {
	return func(ctx context.Context) (any, int, error) {
		*calls++
		return value, 64, nil
	}
}

func TestGetComputesAndPopulatesOnMiss(t *testing.T) {
	store := newFakeStore()
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	calls := 0
	req := GetRequest{Class: ClassAnalytics, Scope: "user-1", TTLOverride: 600 * time.Second}
	value, err := coord.Get(context.Background(), req, countingCompute(&report{Total: 12}, &calls))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, &report{Total: 12}, value)

	// Set was called with the override TTL.
	key := coord.KeyFor(req)
	assert.Equal(t, 600*time.Second, store.ttls[key])
	assert.Equal(t, 1, store.setCalls)
}

func TestGetHitsWithoutRecompute(t *testing.T) {
	store := newFakeStore()
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	calls := 0
	req := GetRequest{Class: ClassOverview, Scope: "user-2"}
	compute := countingCompute(&report{Total: 5}, &calls)

	first, err := coord.Get(context.Background(), req, compute)
	require.NoError(t, err)

	second, err := coord.Get(context.Background(), req, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "hit must not invoke compute")
	assert.Equal(t, first.(*report), second.(*report))
}

func TestForceRefreshAlwaysComputes(t *testing.T) {
	store := newFakeStore()
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	calls := 0
	req := GetRequest{Class: ClassOverview, Scope: "user-3"}
	compute := countingCompute(&report{Total: 9}, &calls)

	_, err := coord.Get(context.Background(), req, compute)
	require.NoError(t, err)

	req.ForceRefresh = true
	_, err = coord.Get(context.Background(), req, compute)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "forceRefresh must invoke compute even after a hit")
}

func TestComputeErrorPropagatesUntouched(t *testing.T) {
	store := newFakeStore()
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	computeErr := errors.New("database exploded")
	_, err := coord.Get(context.Background(), GetRequest{Class: ClassAnalytics}, func(ctx context.Context) (any, int, error) {
		return nil, 0, computeErr
	})

	require.Error(t, err)
	assert.Same(t, computeErr, err)
	assert.Equal(t, 0, store.setCalls, "failures must not be cached")
}

func TestUnreachableBackendDegradesToCompute(t *testing.T) {
	store := newFakeStore()
	store.getErr = apperrors.NewConnectionError("store.get", errors.New("dial refused"))
	store.setErr = apperrors.NewConnectionError("store.set", errors.New("dial refused"))
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	calls := 0
	value, err := coord.Get(context.Background(), GetRequest{Class: ClassOverview, Scope: "u"}, countingCompute(&report{Total: 3}, &calls))

	require.NoError(t, err, "caching being unavailable must not fail the read")
	assert.Equal(t, &report{Total: 3}, value)
	assert.Equal(t, 1, calls)
}

func TestSetFailureStillReturnsValue(t *testing.T) {
	store := newFakeStore()
	store.setErr = apperrors.NewConnectionError("store.set", errors.New("readonly replica"))
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	calls := 0
	value, err := coord.Get(context.Background(), GetRequest{Class: ClassAnalytics}, countingCompute(&report{Total: 7}, &calls))

	require.NoError(t, err)
	assert.Equal(t, &report{Total: 7}, value)
}

func TestUndecodablePayloadTreatedAsMiss(t *testing.T) {
	store := newFakeStore()
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	req := GetRequest{Class: ClassAnalytics, Scope: "user-4"}
	store.entries[coord.KeyFor(req)] = []byte("{not json")

	calls := 0
	value, err := coord.Get(context.Background(), req, countingCompute(&report{Total: 1}, &calls))

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "undecodable entry must fall through to compute")
	assert.Equal(t, &report{Total: 1}, value)
}

func TestTTLResolution(t *testing.T) {
	store := newFakeStore()
	coord := NewCoordinator(store, testRegistry(), zap.NewNop())

	// Class default.
	req := GetRequest{Class: ClassAnalytics, Scope: "a"}
	calls := 0
	_, err := coord.Get(context.Background(), req, countingCompute(&report{}, &calls))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, store.ttls[coord.KeyFor(req)])

	// Runtime override beats the class default.
	coord.ApplyTTLOverrides(map[Class]time.Duration{ClassAnalytics: time.Minute})
	req2 := GetRequest{Class: ClassAnalytics, Scope: "b"}
	_, err = coord.Get(context.Background(), req2, countingCompute(&report{}, &calls))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, store.ttls[coord.KeyFor(req2)])

	// Explicit override beats everything.
	req3 := GetRequest{Class: ClassAnalytics, Scope: "c", TTLOverride: 5 * time.Second}
	_, err = coord.Get(context.Background(), req3, countingCompute(&report{}, &calls))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, store.ttls[coord.KeyFor(req3)])
}

func TestClassDefaults(t *testing.T) {
	assert.Equal(t, 300*time.Second, ClassOverview.DefaultTTL())
	assert.Equal(t, 600*time.Second, ClassAnalytics.DefaultTTL())
	assert.Equal(t, 1800*time.Second, ClassUserPreferences.DefaultTTL())
	assert.Equal(t, 300*time.Second, ClassWidgetData.DefaultTTL())
	assert.Equal(t, 60*time.Second, ClassSystemStatus.DefaultTTL())
	assert.Equal(t, 300*time.Second, ClassPerformanceMetrics.DefaultTTL())
	assert.Equal(t, 120*time.Second, ClassRecentActivity.DefaultTTL())
	assert.Equal(t, 600*time.Second, ClassNotifications.DefaultTTL())
	assert.Equal(t, 900*time.Second, ClassAggregatedAnalytics.DefaultTTL())

	assert.Equal(t, PriorityCritical, ClassOverview.DefaultPriority())
	assert.Equal(t, PriorityCritical, ClassSystemStatus.DefaultPriority())
}
