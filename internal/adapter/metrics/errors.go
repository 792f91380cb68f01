package metrics

import "github.com/prometheus/client_golang/prometheus"

// ErrorMetrics holds Prometheus metrics for request errors.
type ErrorMetrics struct {
	ErrorsTotal *prometheus.CounterVec
}

// NewErrorMetrics creates and registers error metrics on the given registry.
func NewErrorMetrics(reg prometheus.Registerer) *ErrorMetrics {
	m := &ErrorMetrics{
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Total number of request errors, by error type.",
		}, []string{"type"}),
	}

	reg.MustRegister(m.ErrorsTotal)
	return m
}

// ObserveError increments the counter for the given error type. Safe to call
// on a nil receiver so metrics stay optional.
func (m *ErrorMetrics) ObserveError(errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errType).Inc()
}
