// Package metrics holds the Prometheus instrumentation for matching and enrollment.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Match outcome label values
const (
	OutcomeMatched          = "matched"
	OutcomeNoMatch          = "no_match"
	OutcomeInvalidProbe     = "invalid_probe"
	OutcomeInvalidThreshold = "invalid_threshold"
)

// Authentication outcome label values
const (
	AuthSuccess       = "success"
	AuthNoFace        = "no_face"
	AuthLowQuality    = "low_quality"
	AuthNotRecognized = "not_recognized"
	AuthError         = "error"
)

// Metrics holds all Prometheus metrics for the application.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	Enrollments  *prometheus.CounterVec
	MatchOutcome *prometheus.CounterVec
	AuthOutcome  *prometheus.CounterVec
	MatchLatency prometheus.Histogram
	RegistrySize prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enrollments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_enrollments_total",
			Help: "Enrollment attempts by result",
		}, []string{"result"}), // result: "ok", "rejected", "error"

		MatchOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_match_outcomes_total",
			Help: "Matcher decisions by outcome",
		}, []string{"outcome"}),

		AuthOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_auth_outcomes_total",
			Help: "Authentication attempts by outcome",
		}, []string{"outcome"}),

		MatchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "facegate_match_duration_seconds",
			Help:    "Duration of a full registry scan for one probe",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		RegistrySize: f.NewGauge(prometheus.GaugeOpts{
			Name: "facegate_registry_identities",
			Help: "Number of enrolled identities",
		}),
	}
}

// IncrementEnrollment records an enrollment attempt.
func (m *Metrics) IncrementEnrollment(result string) {
	if m != nil {
		m.Enrollments.WithLabelValues(result).Inc()
	}
}

// IncrementMatchOutcome records a matcher decision.
func (m *Metrics) IncrementMatchOutcome(outcome string) {
	if m != nil {
		m.MatchOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementAuthOutcome records an authentication attempt.
func (m *Metrics) IncrementAuthOutcome(outcome string) {
	if m != nil {
		m.AuthOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveMatchLatency records the duration of one matcher query.
func (m *Metrics) ObserveMatchLatency(d time.Duration) {
	if m != nil {
		m.MatchLatency.Observe(d.Seconds())
	}
}

// SetRegistrySize records the current number of enrolled identities.
func (m *Metrics) SetRegistrySize(n int) {
	if m != nil {
		m.RegistrySize.Set(float64(n))
	}
}
