package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the async event recorder.
type Metrics struct {
	Recorded      prometheus.Counter
	Dropped       prometheus.Counter
	WriteFailures prometheus.Counter
	QueueDepth    prometheus.Gauge
}

// New registers event log metrics on reg, or on the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_eventlog_recorded_total",
			Help: "Total number of events written to the event log",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_eventlog_dropped_total",
			Help: "Total number of events dropped because the recorder buffer was full",
		}),
		WriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cardauth_eventlog_write_failures_total",
			Help: "Total number of event log writes that failed",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "cardauth_eventlog_queue_depth",
			Help: "Events waiting to be written",
		}),
	}
}

func (m *Metrics) IncRecorded() {
	if m != nil {
		m.Recorded.Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) IncWriteFailures() {
	if m != nil {
		m.WriteFailures.Inc()
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
