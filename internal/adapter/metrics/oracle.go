package metrics

import "github.com/prometheus/client_golang/prometheus"

// Oracle call outcomes.
const (
	OracleOutcomeSuccess  = "success"
	OracleOutcomeFallback = "fallback"
)

// OracleMetrics tracks calls to the upstream text-generation API.
type OracleMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewOracleMetrics creates and registers oracle metrics on the given registry.
func NewOracleMetrics(reg prometheus.Registerer) *OracleMetrics {
	m := &OracleMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "requests_total",
			Help:      "Total number of oracle generation requests by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "request_duration_seconds",
			Help:      "Duration of oracle generation requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

// ObserveRequest records one oracle call. Nil receivers are allowed so
// callers without a registry can skip metrics entirely.
func (m *OracleMetrics) ObserveRequest(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(seconds)
}
