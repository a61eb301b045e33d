package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the webhook receiver.
type Metrics struct {
	// Events received by type
	Received *prometheus.CounterVec

	// Payloads rejected before dispatch, by reason
	Rejected *prometheus.CounterVec

	// Time from request start to response for authorization requests
	ResponseLatency prometheus.Histogram

	// Authorization requests answered after the response budget
	BudgetExceeded prometheus.Counter

	// Events the asynchronous recorder could not accept
	RecordFailures prometheus.Counter
}

// New registers webhook metrics on reg, or on the default registerer when reg
// is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Received: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardauth_webhook_events_received_total",
			Help: "Webhook events received by type",
		}, []string{"type"}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardauth_webhook_events_rejected_total",
			Help: "Webhook payloads rejected before dispatch",
		}, []string{"reason"}),
		ResponseLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardauth_webhook_authorization_response_seconds",
			Help:    "Response time for authorization request webhooks",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
		}),
		BudgetExceeded: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_webhook_budget_exceeded_total",
			Help: "Authorization request webhooks answered after the response budget",
		}),
		RecordFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_webhook_record_failures_total",
			Help: "Webhook events the event log recorder rejected",
		}),
	}
}

func (m *Metrics) IncReceived(eventType string) {
	if m != nil {
		m.Received.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) IncRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}

// ObserveResponse records the response time and whether it overran budget.
func (m *Metrics) ObserveResponse(elapsed, budget time.Duration) {
	if m == nil {
		return
	}
	m.ResponseLatency.Observe(elapsed.Seconds())
	if budget > 0 && elapsed > budget {
		m.BudgetExceeded.Inc()
	}
}

func (m *Metrics) IncRecordFailures() {
	if m != nil {
		m.RecordFailures.Inc()
	}
}
