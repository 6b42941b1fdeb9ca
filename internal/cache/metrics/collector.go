// Package metrics implements the rolling-window cache performance
// collector: every store operation is recorded into fixed-capacity ring
// buffers, aggregated over a time window, and classified against named
// thresholds to produce health recommendations and alerts.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
)

// DefaultRingCapacity bounds each ring buffer. Oldest samples are
// evicted on overflow; nothing is ever deleted explicitly.
const DefaultRingCapacity = 8192

// Sample is one recorded store operation.
type Sample struct {
	At      time.Time
	Op      cache.Operation
	Class   cache.Class
	Latency time.Duration
	Success bool
}

// ring is a fixed-capacity ring buffer of samples. Not safe for
// concurrent use; the collector serializes access.
type ring struct {
	buf  []Sample
	next int
	full bool
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Sample, capacity)}
}

func (r *ring) add(s Sample) {
	r.buf[r.next] = s
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// snapshot returns a copy of the buffered samples in insertion order.
// Readers never see the live buffer.
func (r *ring) snapshot() []Sample {
	if !r.full {
		out := make([]Sample, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Sample, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

// Collector records store operations into rolling windows and computes
// aggregate cache-health rates. It is the exclusive owner of its ring
// buffers; all reads return snapshots.
type Collector struct {
	mu       sync.Mutex
	ops      *ring
	perClass map[cache.Class]*ring
	capacity int

	logger *zap.Logger
	prom   *promMirror

	now func() time.Time // injectable for tests
}

// NewCollector creates a collector with the given ring capacity
// (DefaultRingCapacity when <= 0).
func NewCollector(capacity int, logger *zap.Logger) *Collector {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		ops:      newRing(capacity),
		perClass: make(map[cache.Class]*ring),
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

// EnablePrometheus mirrors every sample into Prometheus metrics
// registered on reg. Call once before the collector receives traffic.
func (c *Collector) EnablePrometheus(reg prometheus.Registerer, namespace string) error {
	mirror, err := newPromMirror(reg, namespace)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.prom = mirror
	c.mu.Unlock()
	return nil
}

// RecordOperation implements cache.OperationRecorder. It is invoked
// synchronously from every store operation on the caller's goroutine,
// so the critical section stays minimal.
func (c *Collector) RecordOperation(op cache.Operation, class cache.Class, latency time.Duration, success bool) {
	s := Sample{
		At:      c.now(),
		Op:      op,
		Class:   class,
		Latency: latency,
		Success: success,
	}

	c.mu.Lock()
	c.ops.add(s)
	classRing, ok := c.perClass[class]
	if !ok {
		classRing = newRing(c.capacity)
		c.perClass[class] = classRing
	}
	classRing.add(s)
	mirror := c.prom
	c.mu.Unlock()

	if mirror != nil {
		mirror.observe(s)
	}
}

// ClassStats is the per-class slice of a summary.
type ClassStats struct {
	Hits         int     `json:"hits"`
	Misses       int     `json:"misses"`
	Errors       int     `json:"errors"`
	HitRatePct   float64 `json:"hit_rate_pct"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Summary aggregates the samples inside a rolling window.
type Summary struct {
	Window       time.Duration              `json:"window"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	TotalOps     int                        `json:"total_ops"`
	Reads        int                        `json:"reads"`
	HitRatePct   float64                    `json:"hit_rate_pct"`
	AvgLatencyMs float64                    `json:"avg_latency_ms"`
	ErrorRatePct float64                    `json:"error_rate_pct"`
	PerClass     map[cache.Class]ClassStats `json:"per_class"`
}

// Summary computes aggregate rates over samples newer than the window.
func (c *Collector) Summary(window time.Duration) Summary {
	c.mu.Lock()
	samples := c.ops.snapshot()
	now := c.now()
	c.mu.Unlock()

	cutoff := now.Add(-window)
	summary := Summary{
		Window:      window,
		GeneratedAt: now,
		PerClass:    make(map[cache.Class]ClassStats),
	}

	var (
		hits, misses, errors int
		totalLatency         time.Duration
		classLatency         = make(map[cache.Class]time.Duration)
		classOps             = make(map[cache.Class]int)
	)

	for _, s := range samples {
		if s.At.Before(cutoff) {
			continue
		}
		summary.TotalOps++
		totalLatency += s.Latency

		stats := summary.PerClass[s.Class]
		classLatency[s.Class] += s.Latency
		classOps[s.Class]++

		if !s.Success {
			errors++
			stats.Errors++
		} else {
			switch s.Op {
			case cache.OpHit:
				hits++
				stats.Hits++
			case cache.OpMiss:
				misses++
				stats.Misses++
			}
		}
		summary.PerClass[s.Class] = stats
	}

	summary.Reads = hits + misses
	if summary.Reads > 0 {
		summary.HitRatePct = 100 * float64(hits) / float64(summary.Reads)
	}
	if summary.TotalOps > 0 {
		summary.AvgLatencyMs = float64(totalLatency.Microseconds()) / 1000 / float64(summary.TotalOps)
		summary.ErrorRatePct = 100 * float64(errors) / float64(summary.TotalOps)
	}

	for class, stats := range summary.PerClass {
		if reads := stats.Hits + stats.Misses; reads > 0 {
			stats.HitRatePct = 100 * float64(stats.Hits) / float64(reads)
		}
		if n := classOps[class]; n > 0 {
			stats.AvgLatencyMs = float64(classLatency[class].Microseconds()) / 1000 / float64(n)
		}
		summary.PerClass[class] = stats
	}

	return summary
}

// ClassHitRate returns the hit rate percentage for one class over the
// given window, and whether the class saw any reads at all. The warmer
// uses this to prioritize poorly performing classes.
func (c *Collector) ClassHitRate(class cache.Class, window time.Duration) (float64, bool) {
	c.mu.Lock()
	classRing, ok := c.perClass[class]
	var samples []Sample
	if ok {
		samples = classRing.snapshot()
	}
	now := c.now()
	c.mu.Unlock()

	if !ok {
		return 0, false
	}

	cutoff := now.Add(-window)
	hits, reads := 0, 0
	for _, s := range samples {
		if s.At.Before(cutoff) || !s.Success {
			continue
		}
		switch s.Op {
		case cache.OpHit:
			hits++
			reads++
		case cache.OpMiss:
			reads++
		}
	}
	if reads == 0 {
		return 0, false
	}
	return 100 * float64(hits) / float64(reads), true
}
