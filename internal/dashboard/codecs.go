package dashboard

import "argus-backend/internal/cache"

// RegisterCodecs binds every cache class to its payload type. Called once
// at startup before the coordinator serves requests; classes left out
// would fall back to raw bytes and lose their typed contract.
func RegisterCodecs(reg *cache.CodecRegistry) {
	reg.Register(cache.ClassOverview, cache.JSONCodec[OverviewSnapshot]{})
	reg.Register(cache.ClassAnalytics, cache.JSONCodec[AnalyticsReport]{})
	reg.Register(cache.ClassUserPreferences, cache.JSONCodec[UserPreferences]{})
	reg.Register(cache.ClassWidgetData, cache.JSONCodec[WidgetPayload]{})
	reg.Register(cache.ClassSystemStatus, cache.JSONCodec[SystemStatus]{})
	reg.Register(cache.ClassPerformanceMetrics, cache.JSONCodec[PerformanceReport]{})
	reg.Register(cache.ClassRecentActivity, cache.JSONCodec[ActivityFeed]{})
	reg.Register(cache.ClassNotifications, cache.JSONCodec[NotificationList]{})
	reg.Register(cache.ClassAggregatedAnalytics, cache.JSONCodec[AggregatedReport]{})
}
