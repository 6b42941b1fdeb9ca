// Package cache implements the dashboard caching core: deterministic key
// derivation, the cache-aside coordinator, and the serialization contract
// between cache classes and their payload types.
package cache

import "time"

// Class identifies a semantic cache domain. Each class carries a fixed
// default TTL and a default warming priority.
type Class string

const (
	ClassOverview            Class = "overview"
	ClassAnalytics           Class = "analytics"
	ClassUserPreferences     Class = "user_preferences"
	ClassWidgetData          Class = "widget_data"
	ClassSystemStatus        Class = "system_status"
	ClassPerformanceMetrics  Class = "performance_metrics"
	ClassRecentActivity      Class = "recent_activity"
	ClassNotifications       Class = "notifications"
	ClassAggregatedAnalytics Class = "aggregated_analytics"
)

// Priority orders warming work. Lower values drain first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

// String returns the human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// classTTLs holds the default TTL per cache class.
var classTTLs = map[Class]time.Duration{
	ClassOverview:            5 * time.Minute,
	ClassAnalytics:           10 * time.Minute,
	ClassUserPreferences:     30 * time.Minute,
	ClassWidgetData:          5 * time.Minute,
	ClassSystemStatus:        1 * time.Minute,
	ClassPerformanceMetrics:  5 * time.Minute,
	ClassRecentActivity:      2 * time.Minute,
	ClassNotifications:       10 * time.Minute,
	ClassAggregatedAnalytics: 15 * time.Minute,
}

// classPriorities holds the default warming priority per cache class.
var classPriorities = map[Class]Priority{
	ClassOverview:            PriorityCritical,
	ClassAnalytics:           PriorityHigh,
	ClassUserPreferences:     PriorityLow,
	ClassWidgetData:          PriorityMedium,
	ClassSystemStatus:        PriorityCritical,
	ClassPerformanceMetrics:  PriorityHigh,
	ClassRecentActivity:      PriorityMedium,
	ClassNotifications:       PriorityMedium,
	ClassAggregatedAnalytics: PriorityHigh,
}

// DefaultTTL returns the class default TTL. Unknown classes fall back to
// the overview TTL so a misregistered class never caches forever.
func (c Class) DefaultTTL() time.Duration {
	if ttl, ok := classTTLs[c]; ok {
		return ttl
	}
	return classTTLs[ClassOverview]
}

// DefaultPriority returns the default warming priority for the class.
func (c Class) DefaultPriority() Priority {
	if p, ok := classPriorities[c]; ok {
		return p
	}
	return PriorityLow
}

// Valid reports whether c is one of the known cache classes.
func (c Class) Valid() bool {
	_, ok := classTTLs[c]
	return ok
}

// Classes returns all known cache classes.
func Classes() []Class {
	return []Class{
		ClassOverview,
		ClassAnalytics,
		ClassUserPreferences,
		ClassWidgetData,
		ClassSystemStatus,
		ClassPerformanceMetrics,
		ClassRecentActivity,
		ClassNotifications,
		ClassAggregatedAnalytics,
	}
}
