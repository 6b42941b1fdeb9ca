package dashboard

import (
	"context"

	"go.uber.org/zap"

	"argus-backend/internal/cache"
	"argus-backend/internal/cache/warming"
	apperrors "argus-backend/internal/errors"
)

// Source produces canonical dashboard payloads from the detection data
// store. The cache layer never knows how these are computed.
type Source interface {
	FetchOverview(ctx context.Context, userID string) (*OverviewSnapshot, error)
	FetchAnalytics(ctx context.Context, scope, period string) (*AnalyticsReport, error)
	FetchPreferences(ctx context.Context, userID string) (*UserPreferences, error)
	FetchWidget(ctx context.Context, userID, widgetType string) (*WidgetPayload, error)
	FetchSystemStatus(ctx context.Context) (*SystemStatus, error)
	FetchPerformance(ctx context.Context, period string) (*PerformanceReport, error)
	FetchRecentActivity(ctx context.Context, userID string) (*ActivityFeed, error)
	FetchNotifications(ctx context.Context, userID string) (*NotificationList, error)
	FetchAggregated(ctx context.Context, period string) (*AggregatedReport, error)
}

// Cache is the typed facade over the cache-aside coordinator. Handlers
// call these methods; the class, key shape, and codec are fixed here so
// call sites cannot drift.
type Cache struct {
	coordinator *cache.Coordinator
	source      Source
	logger      *zap.Logger
}

// NewCache creates the typed dashboard cache.
func NewCache(coordinator *cache.Coordinator, source Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{coordinator: coordinator, source: source, logger: logger}
}

// getTyped runs one cache-aside read and narrows the result to *T. A
// payload of the wrong type means a codec misregistration, which is an
// internal error rather than a user-visible one.
func getTyped[T any](ctx context.Context, c *Cache, req cache.GetRequest, compute cache.ComputeFunc) (*T, error) {
	value, err := c.coordinator.Get(ctx, req, compute)
	if err != nil {
		return nil, err
	}
	typed, ok := value.(*T)
	if !ok {
		return nil, apperrors.NewInternalError("dashboard.get", nil).
			WithResource(string(req.Class))
	}
	return typed, nil
}

// Overview returns the user's dashboard overview, cached per user.
func (c *Cache) Overview(ctx context.Context, userID string) (*OverviewSnapshot, error) {
	return getTyped[OverviewSnapshot](ctx, c, cache.GetRequest{
		Class: cache.ClassOverview,
		Scope: userID,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchOverview(ctx, userID)
		return v, 0, err
	})
}

// Analytics returns the analytics report for one period. An empty scope
// yields the global report.
func (c *Cache) Analytics(ctx context.Context, scope, period string) (*AnalyticsReport, error) {
	return getTyped[AnalyticsReport](ctx, c, cache.GetRequest{
		Class:        cache.ClassAnalytics,
		Scope:        scope,
		SubDimension: period,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchAnalytics(ctx, scope, period)
		return v, 0, err
	})
}

// Preferences returns the user's dashboard preferences.
func (c *Cache) Preferences(ctx context.Context, userID string) (*UserPreferences, error) {
	return getTyped[UserPreferences](ctx, c, cache.GetRequest{
		Class: cache.ClassUserPreferences,
		Scope: userID,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchPreferences(ctx, userID)
		return v, 0, err
	})
}

// Widget returns one widget's rendered payload.
func (c *Cache) Widget(ctx context.Context, userID, widgetType string) (*WidgetPayload, error) {
	return getTyped[WidgetPayload](ctx, c, cache.GetRequest{
		Class:        cache.ClassWidgetData,
		Scope:        userID,
		SubDimension: widgetType,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchWidget(ctx, userID, widgetType)
		return v, 0, err
	})
}

// SystemStatus returns the shared pipeline health snapshot.
func (c *Cache) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	return getTyped[SystemStatus](ctx, c, cache.GetRequest{
		Class: cache.ClassSystemStatus,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchSystemStatus(ctx)
		return v, 0, err
	})
}

// Performance returns the pipeline performance report for one period.
func (c *Cache) Performance(ctx context.Context, period string) (*PerformanceReport, error) {
	return getTyped[PerformanceReport](ctx, c, cache.GetRequest{
		Class:        cache.ClassPerformanceMetrics,
		SubDimension: period,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchPerformance(ctx, period)
		return v, 0, err
	})
}

// RecentActivity returns the user's activity feed.
func (c *Cache) RecentActivity(ctx context.Context, userID string) (*ActivityFeed, error) {
	return getTyped[ActivityFeed](ctx, c, cache.GetRequest{
		Class: cache.ClassRecentActivity,
		Scope: userID,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchRecentActivity(ctx, userID)
		return v, 0, err
	})
}

// Notifications returns the user's notification list.
func (c *Cache) Notifications(ctx context.Context, userID string) (*NotificationList, error) {
	return getTyped[NotificationList](ctx, c, cache.GetRequest{
		Class: cache.ClassNotifications,
		Scope: userID,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchNotifications(ctx, userID)
		return v, 0, err
	})
}

// Aggregated returns the global cross-user rollup for one period.
func (c *Cache) Aggregated(ctx context.Context, period string) (*AggregatedReport, error) {
	return getTyped[AggregatedReport](ctx, c, cache.GetRequest{
		Class:        cache.ClassAggregatedAnalytics,
		SubDimension: period,
	}, func(ctx context.Context) (any, int, error) {
		v, err := c.source.FetchAggregated(ctx, period)
		return v, 0, err
	})
}

// ComputeFor lets the warmer refresh any class through the same source
// the read path uses.
func (c *Cache) ComputeFor(class cache.Class, scope string, params warming.Params) cache.ComputeFunc {
	return func(ctx context.Context) (any, int, error) {
		switch class {
		case cache.ClassOverview:
			v, err := c.source.FetchOverview(ctx, scope)
			return v, 0, err
		case cache.ClassAnalytics:
			v, err := c.source.FetchAnalytics(ctx, scope, params.SubDimension)
			return v, 0, err
		case cache.ClassUserPreferences:
			v, err := c.source.FetchPreferences(ctx, scope)
			return v, 0, err
		case cache.ClassWidgetData:
			v, err := c.source.FetchWidget(ctx, scope, params.SubDimension)
			return v, 0, err
		case cache.ClassSystemStatus:
			v, err := c.source.FetchSystemStatus(ctx)
			return v, 0, err
		case cache.ClassPerformanceMetrics:
			v, err := c.source.FetchPerformance(ctx, params.SubDimension)
			return v, 0, err
		case cache.ClassRecentActivity:
			v, err := c.source.FetchRecentActivity(ctx, scope)
			return v, 0, err
		case cache.ClassNotifications:
			v, err := c.source.FetchNotifications(ctx, scope)
			return v, 0, err
		case cache.ClassAggregatedAnalytics:
			v, err := c.source.FetchAggregated(ctx, params.SubDimension)
			return v, 0, err
		default:
			return nil, 0, apperrors.NewValidationError("unknown cache class").
				WithResource(string(class))
		}
	}
}

var _ warming.ComputeProvider = (*Cache)(nil)
