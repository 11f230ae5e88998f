package dbexec

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects statement counters and latencies. A nil *Metrics is a
// valid no-op receiver so instrumentation stays optional.
type Metrics struct {
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
}

// NewMetrics builds and registers the statement metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relmap_statements_total",
			Help: "Statements executed, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relmap_statement_duration_seconds",
			Help:    "Statement latency, by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relmap_statement_errors_total",
			Help: "Statements that returned an error, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.statements, m.duration, m.errors)
	return m
}

func (m *Metrics) observe(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.statements.WithLabelValues(kind).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(kind).Inc()
	}
}
