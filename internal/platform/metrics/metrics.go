package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics. Module metrics live with
// their modules.
type Metrics struct {
	BuildInfo     *prometheus.GaugeVec
	PolicyReloads *prometheus.CounterVec
}

// New creates and registers the process metrics on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		BuildInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cardauth_build_info",
			Help: "Static build and configuration labels",
		}, []string{"event_log_backend", "signature_verification"}),
		PolicyReloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardauth_policy_reloads_total",
			Help: "Policy reload attempts by trigger and result",
		}, []string{"trigger", "result"}),
	}
}

// SetBuildInfo records the static labels once at startup.
func (m *Metrics) SetBuildInfo(eventLogBackend string, signatureVerification bool) {
	verified := "disabled"
	if signatureVerification {
		verified = "enabled"
	}
	m.BuildInfo.WithLabelValues(eventLogBackend, verified).Set(1)
}

// IncrementPolicyReload counts a reload attempt.
func (m *Metrics) IncrementPolicyReload(trigger string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PolicyReloads.WithLabelValues(trigger, result).Inc()
}
