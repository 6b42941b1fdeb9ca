// Package warming keeps high-value cache entries populated ahead of
// expiry. A background loop drains a priority queue on a fixed interval,
// refreshing entries through the coordinator's forced-refresh path so
// interactive requests rarely pay the compute cost themselves.
package warming

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
)

// TaskState tracks a warming task through its lifecycle. There is no
// retry state: failed tasks are logged and dropped, the next scheduled
// cycle re-attempts naturally.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// Params carries the key dimensions a warming task refreshes.
type Params struct {
	SubDimension string
	Filters      map[string]string
}

// Task is one unit of warming work. Tasks live only in the in-memory
// queue and are never persisted.
type Task struct {
	ID         uuid.UUID
	Class      cache.Class
	Scope      string
	Priority   cache.Priority
	Params     Params
	EnqueuedAt time.Time
	State      TaskState

	seq uint64 // FIFO tiebreaker within a priority
}

// ComputeProvider supplies the source-of-truth compute callback for a
// warming task. The dashboard service implements this; the warmer never
// knows how values are produced.
type ComputeProvider interface {
	ComputeFor(class cache.Class, scope string, params Params) cache.ComputeFunc
}

// healthSource is the slice of the metrics collector the warmer consults
// to prioritize classes whose hit rate is suffering.
type healthSource interface {
	ClassHitRate(class cache.Class, window time.Duration) (float64, bool)
}

const (
	// DefaultInterval is the period of the background warming loop.
	DefaultInterval = 60 * time.Second

	// DefaultConcurrency bounds how many tasks one cycle drains.
	DefaultConcurrency = 5

	// boostThresholdPct is the per-class hit rate below which a periodic
	// task is promoted one priority level.
	boostThresholdPct = 70.0

	// healthWindow is the rolling window consulted for prioritization.
	healthWindow = 5 * time.Minute
)

// Warmer owns the warming queue and the background refresh loop.
type Warmer struct {
	coordinator *cache.Coordinator
	provider    ComputeProvider
	health      healthSource
	logger      *zap.Logger

	interval    time.Duration
	concurrency int

	mu      sync.Mutex
	queue   taskQueue
	pending map[string]struct{} // cache keys already queued
	nextSeq uint64

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stopCh    chan struct{}
	loopDone  chan struct{}
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithInterval overrides the loop interval.
func WithInterval(d time.Duration) Option {
	return func(w *Warmer) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithConcurrency overrides the per-cycle task limit.
func WithConcurrency(n int) Option {
	return func(w *Warmer) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithHealthSource wires the metrics collector used to promote tasks for
// classes with degraded hit rates.
func WithHealthSource(h healthSource) Option {
	return func(w *Warmer) { w.health = h }
}

// NewWarmer creates a warmer over the coordinator. Start must be called
// before the background loop runs; WarmOnDemand works immediately.
func NewWarmer(coordinator *cache.Coordinator, provider ComputeProvider, logger *zap.Logger, opts ...Option) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Warmer{
		coordinator: coordinator,
		provider:    provider,
		logger:      logger,
		interval:    DefaultInterval,
		concurrency: DefaultConcurrency,
		pending:     make(map[string]struct{}),
		stopCh:      make(chan struct{}),
		loopDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue queues a warming task. Tasks whose cache key is already queued
// are coalesced. Digest-collapsed keys cannot be kept fresh selectively
// and are rejected up front.
func (w *Warmer) Enqueue(class cache.Class, scope string, priority cache.Priority, params Params) (uuid.UUID, bool) {
	key := w.keyFor(class, scope, params)
	if w.coordinator.Keys().IsCollapsed(key) {
		w.logger.Debug("skipping warm task with collapsed key",
			zap.String("class", string(class)),
			zap.String("key", key),
		)
		return uuid.Nil, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, queued := w.pending[key]; queued {
		return uuid.Nil, false
	}

	task := &Task{
		ID:         uuid.New(),
		Class:      class,
		Scope:      scope,
		Priority:   priority,
		Params:     params,
		EnqueuedAt: time.Now(),
		State:      TaskPending,
		seq:        w.nextSeq,
	}
	w.nextSeq++
	w.pending[key] = struct{}{}
	heap.Push(&w.queue, task)
	return task.ID, true
}

// QueueLen reports the number of pending tasks.
func (w *Warmer) QueueLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.Len()
}

// Start launches the background loop. The first cycle runs after one
// interval, not immediately.
func (w *Warmer) Start() {
	w.startOnce.Do(func() {
		w.mu.Lock()
		w.started = true
		w.mu.Unlock()
		go w.run()
	})
}

// Stop signals the loop and waits for the in-flight cycle to drain. No
// warming task is orphaned after Stop returns.
func (w *Warmer) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.loopDone
	}
}

func (w *Warmer) run() {
	defer close(w.loopDone)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("cache warmer started",
		zap.Duration("interval", w.interval),
		zap.Int("concurrency", w.concurrency),
	)

	for {
		select {
		case <-w.stopCh:
			w.logger.Info("cache warmer stopped")
			return
		case <-ticker.C:
			w.enqueuePeriodic()
			w.runCycle(context.Background())
		}
	}
}

// enqueuePeriodic re-queues the recurring system-wide tasks every cycle
// regardless of queue state. Classes with a degraded hit rate are
// promoted one priority level.
func (w *Warmer) enqueuePeriodic() {
	type periodic struct {
		class  cache.Class
		params Params
	}
	var tasks []periodic

	tasks = append(tasks, periodic{cache.ClassSystemStatus, Params{}})
	for _, period := range []string{"30d", "7d", "1d"} {
		tasks = append(tasks, periodic{cache.ClassAggregatedAnalytics, Params{SubDimension: period}})
	}
	for _, period := range []string{"1h", "1d", "7d"} {
		tasks = append(tasks, periodic{cache.ClassPerformanceMetrics, Params{SubDimension: period}})
	}

	for _, p := range tasks {
		w.Enqueue(p.class, "", w.priorityFor(p.class), p.params)
	}
}

// priorityFor starts from the class default and promotes one level when
// the rolling hit rate for the class has dropped below the boost
// threshold.
func (w *Warmer) priorityFor(class cache.Class) cache.Priority {
	priority := class.DefaultPriority()
	if w.health == nil {
		return priority
	}
	rate, ok := w.health.ClassHitRate(class, healthWindow)
	if ok && rate < boostThresholdPct && priority > cache.PriorityCritical {
		priority--
	}
	return priority
}

// runCycle drains up to the concurrency limit of the highest-priority
// tasks and executes them concurrently. Failures are collected per task,
// never raised; one failing task cannot cancel the rest of the batch.
func (w *Warmer) runCycle(ctx context.Context) (completed, failed int) {
	batch := w.takeBatch()
	if len(batch) == 0 {
		return 0, 0
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, task := range batch {
		wg.Add(1)
		go func(task *Task) {
			defer wg.Done()
			err := w.runTask(ctx, task)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			completed++
		}(task)
	}
	wg.Wait()

	w.logger.Info("warming cycle finished",
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Int("remaining", w.QueueLen()),
	)
	return completed, failed
}

// takeBatch pops up to the concurrency limit of tasks off the queue.
func (w *Warmer) takeBatch() []*Task {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.concurrency
	if n > w.queue.Len() {
		n = w.queue.Len()
	}
	batch := make([]*Task, 0, n)
	for i := 0; i < n; i++ {
		task := heap.Pop(&w.queue).(*Task)
		delete(w.pending, w.keyFor(task.Class, task.Scope, task.Params))
		task.State = TaskRunning
		batch = append(batch, task)
	}
	return batch
}

func (w *Warmer) runTask(ctx context.Context, task *Task) error {
	compute := w.provider.ComputeFor(task.Class, task.Scope, task.Params)

	_, err := w.coordinator.Get(ctx, cache.GetRequest{
		Class:        task.Class,
		Scope:        task.Scope,
		SubDimension: task.Params.SubDimension,
		Filters:      task.Params.Filters,
		ForceRefresh: true,
	}, compute)
	if err != nil {
		task.State = TaskFailed
		w.logger.Warn("warming task failed",
			zap.String("task_id", task.ID.String()),
			zap.String("class", string(task.Class)),
			zap.String("scope", task.Scope),
			zap.Error(err),
		)
		return err
	}

	task.State = TaskCompleted
	w.logger.Debug("warming task completed",
		zap.String("task_id", task.ID.String()),
		zap.String("class", string(task.Class)),
	)
	return nil
}

// WarmOnDemand refreshes one entry immediately and synchronously,
// bypassing the queue. Used for latency-sensitive triggers such as a
// user logging in.
func (w *Warmer) WarmOnDemand(ctx context.Context, class cache.Class, scope string, params Params) error {
	compute := w.provider.ComputeFor(class, scope, params)
	_, err := w.coordinator.Get(ctx, cache.GetRequest{
		Class:        class,
		Scope:        scope,
		SubDimension: params.SubDimension,
		Filters:      params.Filters,
		ForceRefresh: true,
	}, compute)
	return err
}

// loginClasses are the entries a user's first dashboard render touches.
var loginClasses = []cache.Class{
	cache.ClassOverview,
	cache.ClassUserPreferences,
	cache.ClassRecentActivity,
	cache.ClassNotifications,
}

// WarmUserLogin warms the user's login-critical entries concurrently and
// returns the number of classes that warmed successfully. Failures are
// logged, not returned; login must never block on the cache.
func (w *Warmer) WarmUserLogin(ctx context.Context, scope string) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		warmed int
	)
	for _, class := range loginClasses {
		wg.Add(1)
		go func(class cache.Class) {
			defer wg.Done()
			if err := w.WarmOnDemand(ctx, class, scope, Params{}); err != nil {
				w.logger.Warn("login warm failed",
					zap.String("class", string(class)),
					zap.String("scope", scope),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			warmed++
			mu.Unlock()
		}(class)
	}
	wg.Wait()
	return warmed
}

func (w *Warmer) keyFor(class cache.Class, scope string, params Params) string {
	return w.coordinator.KeyFor(cache.GetRequest{
		Class:        class,
		Scope:        scope,
		SubDimension: params.SubDimension,
		Filters:      params.Filters,
	})
}
