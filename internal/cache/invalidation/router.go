// Package invalidation maps domain events to pattern-based cache
// invalidations. Events are coarse, so rules over-invalidate: serving
// stale dashboard data is a correctness problem, extra misses are only
// a performance cost.
package invalidation

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"argus-backend/internal/cache"
)

// Trigger is one of the closed set of domain events that invalidate
// cache entries.
type Trigger string

const (
	TriggerResultCreated         Trigger = "result_created"
	TriggerResultUpdated         Trigger = "result_updated"
	TriggerResultDeleted         Trigger = "result_deleted"
	TriggerUserAnalysisCompleted Trigger = "user_analysis_completed"
	TriggerSystemStatusChanged   Trigger = "system_status_changed"
	TriggerMetricsUpdated        Trigger = "metrics_updated"
	TriggerPreferencesChanged    Trigger = "preferences_changed"
	TriggerNotificationCreated   Trigger = "notification_created"
	TriggerBatchCompleted        Trigger = "batch_completed"
	TriggerModelVersionUpdated   Trigger = "model_version_updated"
)

// ScopeSelector decides whether a rule targets the event owner's entries
// or the class globally.
type ScopeSelector string

const (
	ScopeCurrentOwner ScopeSelector = "owner"
	ScopeGlobal       ScopeSelector = "global"
)

// Rule binds one cache class to a scope selector.
type Rule struct {
	Class    cache.Class
	Selector ScopeSelector
}

// Name identifies the rule inside an InvalidationResult.
func (r Rule) Name() string {
	return fmt.Sprintf("%s/%s", r.Class, r.Selector)
}

// RuleOutcome reports one rule's execution.
type RuleOutcome struct {
	Pattern string `json:"pattern"`
	Deleted int    `json:"deleted"`
	Err     error  `json:"-"`
}

// Result aggregates an invalidation fan-out. Rules execute independently;
// a failing rule never aborts the rest.
type Result struct {
	Trigger   Trigger                `json:"trigger"`
	Scope     string                 `json:"scope,omitempty"`
	PerRule   map[string]RuleOutcome `json:"per_rule"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
}

// TotalDeleted sums deletions across rules.
func (r Result) TotalDeleted() int {
	total := 0
	for _, outcome := range r.PerRule {
		total += outcome.Deleted
	}
	return total
}

// defaultRules is the static trigger table. It is the minimum safe set:
// broad enough that no stale overview or analytics survives its event.
func defaultRules() map[Trigger][]Rule {
	return map[Trigger][]Rule{
		TriggerResultCreated: {
			{cache.ClassOverview, ScopeCurrentOwner},
			{cache.ClassAnalytics, ScopeCurrentOwner},
			{cache.ClassRecentActivity, ScopeCurrentOwner},
			{cache.ClassAnalytics, ScopeGlobal},
			{cache.ClassAggregatedAnalytics, ScopeGlobal},
		},
		TriggerResultUpdated: {
			{cache.ClassOverview, ScopeCurrentOwner},
			{cache.ClassAnalytics, ScopeCurrentOwner},
			{cache.ClassRecentActivity, ScopeCurrentOwner},
			{cache.ClassAnalytics, ScopeGlobal},
			{cache.ClassAggregatedAnalytics, ScopeGlobal},
		},
		TriggerResultDeleted: {
			{cache.ClassOverview, ScopeCurrentOwner},
			{cache.ClassAnalytics, ScopeCurrentOwner},
			{cache.ClassRecentActivity, ScopeCurrentOwner},
			{cache.ClassWidgetData, ScopeCurrentOwner},
			{cache.ClassAnalytics, ScopeGlobal},
			{cache.ClassAggregatedAnalytics, ScopeGlobal},
		},
		TriggerUserAnalysisCompleted: {
			{cache.ClassOverview, ScopeCurrentOwner},
			{cache.ClassAnalytics, ScopeCurrentOwner},
			{cache.ClassRecentActivity, ScopeCurrentOwner},
			{cache.ClassPerformanceMetrics, ScopeCurrentOwner},
		},
		TriggerSystemStatusChanged: {
			{cache.ClassSystemStatus, ScopeGlobal},
		},
		TriggerMetricsUpdated: {
			{cache.ClassPerformanceMetrics, ScopeGlobal},
			{cache.ClassAggregatedAnalytics, ScopeGlobal},
		},
		TriggerPreferencesChanged: {
			{cache.ClassUserPreferences, ScopeCurrentOwner},
			{cache.ClassWidgetData, ScopeCurrentOwner},
		},
		TriggerNotificationCreated: {
			{cache.ClassNotifications, ScopeCurrentOwner},
		},
		// Batch completion also touches the owner's activity feed, beyond
		// the global analytics the event strictly implies.
		TriggerBatchCompleted: {
			{cache.ClassAnalytics, ScopeGlobal},
			{cache.ClassAggregatedAnalytics, ScopeGlobal},
			{cache.ClassPerformanceMetrics, ScopeGlobal},
			{cache.ClassRecentActivity, ScopeCurrentOwner},
		},
		TriggerModelVersionUpdated: {
			{cache.ClassOverview, ScopeGlobal},
			{cache.ClassAnalytics, ScopeGlobal},
			{cache.ClassAggregatedAnalytics, ScopeGlobal},
			{cache.ClassSystemStatus, ScopeGlobal},
		},
	}
}

// Router dispatches triggers to their invalidation rules.
type Router struct {
	store  cache.Store
	keys   *cache.KeyCodec
	logger *zap.Logger

	mu    sync.RWMutex
	rules map[Trigger][]Rule
}

// NewRouter creates a router with the default trigger table.
func NewRouter(store cache.Store, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:  store,
		keys:   cache.NewKeyCodec(),
		logger: logger,
		rules:  defaultRules(),
	}
}

// Register appends rules for a trigger. This is the only way the table
// changes after construction.
func (r *Router) Register(trigger Trigger, rules ...Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[trigger] = append(r.rules[trigger], rules...)
}

// Rules returns a copy of the rule list for a trigger.
func (r *Router) Rules(trigger Trigger) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules[trigger]...)
}

// Invalidate executes every rule registered for the trigger. Rules run
// independently: failures are collected per rule, and repeated calls for
// the same trigger are safe (the second call simply deletes nothing).
func (r *Router) Invalidate(ctx context.Context, trigger Trigger, scope string) Result {
	rules := r.Rules(trigger)

	result := Result{
		Trigger: trigger,
		Scope:   scope,
		PerRule: make(map[string]RuleOutcome, len(rules)),
	}

	if len(rules) == 0 {
		r.logger.Debug("no invalidation rules for trigger", zap.String("trigger", string(trigger)))
		return result
	}

	for _, rule := range rules {
		ruleScope := ""
		if rule.Selector == ScopeCurrentOwner {
			ruleScope = scope
		}
		pattern := r.keys.Pattern(rule.Class, ruleScope)

		deleted, err := r.store.DeleteByPattern(ctx, pattern)
		result.PerRule[rule.Name()] = RuleOutcome{
			Pattern: pattern,
			Deleted: deleted,
			Err:     err,
		}

		if err != nil {
			result.Failed++
			r.logger.Warn("invalidation rule failed",
				zap.String("trigger", string(trigger)),
				zap.String("rule", rule.Name()),
				zap.String("pattern", pattern),
				zap.Error(err),
			)
			continue
		}
		result.Succeeded++
	}

	r.logger.Info("cache invalidation executed",
		zap.String("trigger", string(trigger)),
		zap.String("scope", scope),
		zap.Int("rules", len(rules)),
		zap.Int("failed", result.Failed),
		zap.Int("deleted", result.TotalDeleted()),
	)

	return result
}
