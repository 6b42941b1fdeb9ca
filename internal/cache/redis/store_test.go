package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
	apperrors "argus-backend/internal/errors"
)

// recordingStub captures samples forwarded by the store.
type recordingStub struct {
	mu      sync.Mutex
	samples []sample
}

type sample struct {
	op      cache.Operation
	class   cache.Class
	success bool
}

func (r *recordingStub) RecordOperation(op cache.Operation, class cache.Class, latency time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, sample{op: op, class: class, success: success})
}

func (r *recordingStub) all() []sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sample(nil), r.samples...)
}

// newUnreachableStore returns a store pointed at a port nothing listens on.
func newUnreachableStore(rec cache.OperationRecorder) *Store {
	cfg := Config{
		Addr:         "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
	}
	return NewStore(cfg, rec, zap.NewNop())
}

func TestGetUnreachableBackendIsMissWithConnectionError(t *testing.T) {
	store := newUnreachableStore(nil)
	defer store.Close()

	value, found, err := store.Get(context.Background(), "dash:overview:user:u1")

	assert.Nil(t, value)
	assert.False(t, found)
	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
}

func TestSetUnreachableBackendReturnsConnectionError(t *testing.T) {
	store := newUnreachableStore(nil)
	defer store.Close()

	err := store.Set(context.Background(), "dash:overview:user:u1", []byte("{}"), time.Minute)

	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
}

func TestPingUnreachableBackend(t *testing.T) {
	store := newUnreachableStore(nil)
	defer store.Close()

	err := store.Ping(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
}

func TestFailedOperationsStillReachRecorder(t *testing.T) {
	rec := &recordingStub{}
	store := newUnreachableStore(rec)
	defer store.Close()

	_, _, _ = store.Get(context.Background(), "dash:overview:user:u1")
	_ = store.Set(context.Background(), "dash:analytics:user:u1", []byte("{}"), time.Minute)

	samples := rec.all()
	require.Len(t, samples, 2)

	assert.Equal(t, cache.OpMiss, samples[0].op)
	assert.Equal(t, cache.ClassOverview, samples[0].class)
	assert.False(t, samples[0].success)

	assert.Equal(t, cache.OpSet, samples[1].op)
	assert.Equal(t, cache.ClassAnalytics, samples[1].class)
	assert.False(t, samples[1].success)
}

func TestBreakerShortCircuitsAfterRepeatedFailures(t *testing.T) {
	store := newUnreachableStore(nil)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, _, err := store.Get(ctx, "dash:overview:user:u1")
		require.Error(t, err)
		// Every failure mode, including open-breaker short circuits, maps
		// onto the connection error taxonomy.
		assert.True(t, apperrors.IsConnection(err))
	}
}

func TestUnknownClassRecordedForCollapsedKeys(t *testing.T) {
	rec := &recordingStub{}
	store := newUnreachableStore(rec)
	defer store.Close()

	_, _, _ = store.Get(context.Background(), "dash:hash:0011223344556677")

	samples := rec.all()
	require.Len(t, samples, 1)
	assert.Equal(t, classUnknown, samples[0].class)
}
