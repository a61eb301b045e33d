package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks provider callback health.
type Metrics struct {
	CallLatency  *prometheus.HistogramVec
	CallResults  *prometheus.CounterVec
	CircuitState prometheus.Gauge
}

// New registers provider metrics on reg, or on the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		CallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardauth_provider_call_duration_seconds",
			Help:    "Duration of provider approve/decline calls",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2},
		}, []string{"op"}),
		CallResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardauth_provider_calls_total",
			Help: "Provider calls by operation and result",
		}, []string{"op", "result"}), // result: "ok", "error", "timeout", "circuit_open"
		CircuitState: f.NewGauge(prometheus.GaugeOpts{
			Name: "cardauth_provider_circuit_state",
			Help: "Provider circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) ObserveCall(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallLatency.WithLabelValues(op).Observe(d.Seconds())
	m.CallResults.WithLabelValues(op, result).Inc()
}

func (m *Metrics) IncCircuitRejected(op string) {
	if m != nil {
		m.CallResults.WithLabelValues(op, "circuit_open").Inc()
	}
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitState.Set(1)
	} else {
		m.CircuitState.Set(0)
	}
}
