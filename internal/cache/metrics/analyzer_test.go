package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
)

type captureSink struct {
	mu      sync.Mutex
	batches [][]Alert
}

func (s *captureSink) Publish(ctx context.Context, alerts []Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, alerts)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func degradeHitRate(c *Collector) {
	for i := 0; i < 10; i++ {
		c.RecordOperation(cache.OpMiss, cache.ClassOverview, time.Millisecond, true)
	}
}

func TestAnalyzerPublishesOnLevelChangeOnly(t *testing.T) {
	collector := newTestCollector(100)
	sink := &captureSink{}
	analyzer := NewAnalyzer(collector, sink, time.Minute, 5*time.Minute, zap.NewNop())

	degradeHitRate(collector)

	analyzer.analyzeOnce()
	require.Equal(t, 1, sink.count(), "first degraded cycle publishes")

	analyzer.analyzeOnce()
	assert.Equal(t, 1, sink.count(), "unchanged level must not re-publish")
}

func TestAnalyzerRepublishesAfterRecovery(t *testing.T) {
	collector := newTestCollector(100)
	sink := &captureSink{}
	analyzer := NewAnalyzer(collector, sink, time.Minute, 5*time.Minute, zap.NewNop())

	degradeHitRate(collector)
	analyzer.analyzeOnce()
	require.Equal(t, 1, sink.count())

	// Recover: flood with hits so the hit rate leaves the degraded range.
	for i := 0; i < 100; i++ {
		collector.RecordOperation(cache.OpHit, cache.ClassOverview, time.Millisecond, true)
	}
	analyzer.analyzeOnce()
	assert.Equal(t, 1, sink.count(), "recovery publishes nothing")

	// Degrade again: a fresh alert must go out.
	for i := 0; i < 2000; i++ {
		collector.RecordOperation(cache.OpMiss, cache.ClassOverview, time.Millisecond, true)
	}
	analyzer.analyzeOnce()
	assert.Equal(t, 2, sink.count())
}

// failingSink rejects batches until allowed, then delegates to capture.
type failingSink struct {
	captureSink
	mu       sync.Mutex
	failures int
}

func (s *failingSink) Publish(ctx context.Context, alerts []Alert) error {
	s.mu.Lock()
	remaining := s.failures
	if remaining > 0 {
		s.failures--
	}
	s.mu.Unlock()
	if remaining > 0 {
		return errors.New("bus unavailable")
	}
	return s.captureSink.Publish(ctx, alerts)
}

func TestAnalyzerRetriesAfterFailedPublish(t *testing.T) {
	collector := newTestCollector(100)
	sink := &failingSink{failures: 1}
	analyzer := NewAnalyzer(collector, sink, time.Minute, 5*time.Minute, zap.NewNop())

	degradeHitRate(collector)

	// First cycle fails at the sink; the alert must not be marked delivered.
	analyzer.analyzeOnce()
	require.Equal(t, 0, sink.count())

	// Level is unchanged, yet the next cycle must re-send the dropped alert.
	analyzer.analyzeOnce()
	require.Equal(t, 1, sink.count())

	// Once delivered, an unchanged level stays quiet.
	analyzer.analyzeOnce()
	assert.Equal(t, 1, sink.count())
}

func TestAnalyzerStartStop(t *testing.T) {
	collector := newTestCollector(100)
	analyzer := NewAnalyzer(collector, NopSink{}, 10*time.Millisecond, time.Minute, zap.NewNop())

	analyzer.Start()
	time.Sleep(30 * time.Millisecond)
	analyzer.Stop()

	// Stop is idempotent.
	analyzer.Stop()
}
