package flashd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the daemon's Prometheus instrumentation, registered
// against a private registry so cmd/flashd controls what gets served
// on /metrics.
type Metrics struct {
	JobsTotal    *prometheus.CounterVec
	BytesTotal   *prometheus.CounterVec
	RetriesTotal prometheus.Counter
	JobDuration  *prometheus.HistogramVec
}

// NewMetrics constructs and registers the daemon's metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microboot",
			Subsystem: "flashd",
			Name:      "jobs_total",
			Help:      "Number of flash jobs processed, by operation and status.",
		}, []string{"op", "status"}),
		BytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microboot",
			Subsystem: "flashd",
			Name:      "bytes_total",
			Help:      "Bytes transferred, by operation.",
		}, []string{"op"}),
		RetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "microboot",
			Subsystem: "flashd",
			Name:      "transport_retries_total",
			Help:      "Number of command retries issued by the transport layer.",
		}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "microboot",
			Subsystem: "flashd",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of a flash job.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}
