package metrics

import "time"

// Metric names used by alerts.
const (
	MetricHitRate    = "hit_rate"
	MetricAvgLatency = "avg_latency"
	MetricErrorRate  = "error_rate"
)

// Alert flags one metric whose classification is Poor or Critical,
// with an operator-facing recommendation.
type Alert struct {
	Metric         string    `json:"metric"`
	Level          Level     `json:"level"`
	Value          float64   `json:"value"`
	Recommendation string    `json:"recommendation"`
	At             time.Time `json:"at"`
}

// Alerts classifies the current window and returns one alert per degraded
// metric. Metrics without data never alert.
func (c *Collector) Alerts(window time.Duration) []Alert {
	summary := c.Summary(window)
	health := Classify(summary)

	alerts := make([]Alert, 0, 3)

	if summary.Reads > 0 && health.HitRate.Degraded() {
		alerts = append(alerts, Alert{
			Metric:         MetricHitRate,
			Level:          health.HitRate,
			Value:          summary.HitRatePct,
			Recommendation: "hit rate is low: increase class TTLs or extend warming coverage for hot keys",
			At:             summary.GeneratedAt,
		})
	}

	if summary.TotalOps > 0 && health.Latency.Degraded() {
		alerts = append(alerts, Alert{
			Metric:         MetricAvgLatency,
			Level:          health.Latency,
			Value:          summary.AvgLatencyMs,
			Recommendation: "cache latency is high: check backend load and network, consider a larger connection pool",
			At:             summary.GeneratedAt,
		})
	}

	if summary.TotalOps > 0 && health.ErrorRate.Degraded() {
		alerts = append(alerts, Alert{
			Metric:         MetricErrorRate,
			Level:          health.ErrorRate,
			Value:          summary.ErrorRatePct,
			Recommendation: "cache errors are elevated: verify backend connectivity and circuit breaker state",
			At:             summary.GeneratedAt,
		})
	}

	return alerts
}
