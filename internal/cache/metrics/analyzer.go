package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink receives degraded-health alerts. Implementations publish to an
// external bus; the core never defines its own delivery transport.
type Sink interface {
	Publish(ctx context.Context, alerts []Alert) error
}

// NopSink discards alerts. Used when no bus is configured.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(context.Context, []Alert) error { return nil }

// Analyzer periodically classifies cache health and pushes alerts to the
// sink. Publishing is edge-triggered: an alert is sent when a metric's
// classification changes, not on every cycle it stays degraded.
type Analyzer struct {
	collector *Collector
	sink      Sink
	interval  time.Duration
	window    time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	lastLevel map[string]Level

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewAnalyzer creates an analyzer over the collector.
func NewAnalyzer(collector *Collector, sink Sink, interval, window time.Duration, logger *zap.Logger) *Analyzer {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &Analyzer{
		collector: collector,
		sink:      sink,
		interval:  interval,
		window:    window,
		logger:    logger,
		lastLevel: make(map[string]Level),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the analysis loop. Safe to call once.
func (a *Analyzer) Start() {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	a.wg.Add(1)
	go a.run()
}

// Stop signals the loop and waits for it to finish.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	a.mu.Unlock()

	close(a.stopCh)
	a.wg.Wait()
}

func (a *Analyzer) run() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.analyzeOnce()
		}
	}
}

// analyzeOnce runs one classification cycle.
func (a *Analyzer) analyzeOnce() {
	alerts := a.collector.Alerts(a.window)
	changed := a.filterChanged(alerts)
	if len(changed) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.sink.Publish(ctx, changed); err != nil {
		a.logger.Warn("failed to publish cache health alerts",
			zap.Int("count", len(changed)),
			zap.Error(err),
		)
		return
	}
	a.markPublished(changed)

	for _, alert := range changed {
		a.logger.Info("cache health alert published",
			zap.String("metric", alert.Metric),
			zap.String("level", string(alert.Level)),
			zap.Float64("value", alert.Value),
		)
	}
}

// filterChanged keeps alerts whose level differs from the last published
// cycle and forgets metrics that recovered so they can alert again. It
// does not record the new levels; that happens only after the sink
// accepted the batch, so a failed publish is retried next cycle.
func (a *Analyzer) filterChanged(alerts []Alert) []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]bool, len(alerts))
	changed := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		seen[alert.Metric] = true
		if a.lastLevel[alert.Metric] != alert.Level {
			changed = append(changed, alert)
		}
	}

	// Metrics that stopped alerting recovered; forget their level.
	for metric := range a.lastLevel {
		if !seen[metric] {
			delete(a.lastLevel, metric)
		}
	}

	return changed
}

// markPublished records the levels of alerts the sink accepted.
func (a *Analyzer) markPublished(alerts []Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, alert := range alerts {
		a.lastLevel[alert.Metric] = alert.Level
	}
}
