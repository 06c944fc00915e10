package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	OppressTotal         *prometheus.CounterVec
	OppressFailuresTotal *prometheus.CounterVec
	SuppressedCallsTotal *prometheus.CounterVec
	ActiveSuppressions   prometheus.Gauge
}

// New registers the oppressor collectors with reg; a nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		OppressTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oppressor_oppress_total",
			Help: "Total number of oppress scopes entered",
		}, []string{"class"}),
		OppressFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oppressor_oppress_failures_total",
			Help: "Total number of oppress scopes whose block failed",
		}, []string{"class"}),
		SuppressedCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oppressor_suppressed_calls_total",
			Help: "Total number of method calls short-circuited by suppression",
		}, []string{"class", "method"}),
		ActiveSuppressions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "oppressor_active_scopes",
			Help: "Current number of oppress scopes in progress across all executions",
		}),
	}
}

func (m *Metrics) IncrementOppress(class string) {
	if m == nil {
		return
	}

	m.OppressTotal.WithLabelValues(class).Inc()
	m.ActiveSuppressions.Inc()
}

func (m *Metrics) DecrementActive() {
	if m == nil {
		return
	}

	m.ActiveSuppressions.Dec()
}

func (m *Metrics) IncrementOppressFailures(class string) {
	if m == nil {
		return
	}

	m.OppressFailuresTotal.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementSuppressedCalls(class, method string) {
	if m == nil {
		return
	}

	m.SuppressedCallsTotal.WithLabelValues(class, method).Inc()
}
