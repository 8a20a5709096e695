package rpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per-procedure call counts and latencies.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the RPC collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guestbook",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of procedure calls by result code",
		}, []string{"path", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "guestbook",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Procedure call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
}

func (m *Metrics) observe(path string, code Code, elapsed time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	m.requests.WithLabelValues(path, string(code)).Inc()
	m.duration.WithLabelValues(path).Observe(elapsed.Seconds())
}
