package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for authorization decisions.
type Metrics struct {
	// Decision outcomes by outcome and reason code
	DecisionOutcome *prometheus.CounterVec

	// Evaluator latency alone
	EvaluateLatency prometheus.Histogram

	// Evaluate plus provider delivery
	AuthorizeLatency prometheus.Histogram

	UnknownCategory    prometheus.Counter
	Replays            prometheus.Counter
	DeliveryFailures   prometheus.Counter
	ValidationFailures prometheus.Counter
}

// New registers authorization metrics on reg, or on the default registerer
// when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		DecisionOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardauth_authorization_decisions_total",
			Help: "Authorization decisions by outcome and reason code",
		}, []string{"outcome", "reason_code"}),

		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardauth_authorization_evaluate_duration_seconds",
			Help:    "Duration of rule evaluation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),

		AuthorizeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardauth_authorization_authorize_duration_seconds",
			Help:    "Duration of evaluation plus provider delivery",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 3},
		}),

		UnknownCategory: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_authorization_unknown_category_total",
			Help: "Requests that passed the category step only because no rule exists for the code",
		}),
		Replays: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_authorization_replays_total",
			Help: "Redelivered requests answered from the delivered-decision cache",
		}),
		DeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_authorization_delivery_failures_total",
			Help: "Decisions that could not be delivered to the provider",
		}),
		ValidationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_authorization_validation_failures_total",
			Help: "Requests rejected by validation and declined fail-closed",
		}),
	}
}

func (m *Metrics) IncrementOutcome(outcome, reasonCode string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome, reasonCode).Inc()
	}
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveAuthorizeLatency(d time.Duration) {
	if m != nil {
		m.AuthorizeLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncUnknownCategory() {
	if m != nil {
		m.UnknownCategory.Inc()
	}
}

func (m *Metrics) IncReplays() {
	if m != nil {
		m.Replays.Inc()
	}
}

func (m *Metrics) IncDeliveryFailures() {
	if m != nil {
		m.DeliveryFailures.Inc()
	}
}

func (m *Metrics) IncValidationFailures() {
	if m != nil {
		m.ValidationFailures.Inc()
	}
}
