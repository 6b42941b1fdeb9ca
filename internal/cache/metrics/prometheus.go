package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"argus-backend/internal/cache"
)

// promMirror mirrors collector samples into Prometheus metrics so the
// rolling in-memory window and the scrape endpoint always agree.
type promMirror struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func newPromMirror(reg prometheus.Registerer, namespace string) (*promMirror, error) {
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total cache store operations by kind, class and status",
		},
		[]string{"operation", "class", "status"},
	)

	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_operation_duration_seconds",
			Help:      "Cache store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	for _, collector := range []prometheus.Collector{operations, latency} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return &promMirror{operations: operations, latency: latency}, nil
}

func (m *promMirror) observe(s Sample) {
	status := "success"
	if !s.Success {
		status = "error"
	}
	m.operations.WithLabelValues(string(s.Op), string(s.Class), status).Inc()
	m.latency.WithLabelValues(string(s.Op)).Observe(s.Latency.Seconds())
}

var _ cache.OperationRecorder = (*Collector)(nil)
