package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the lead intake pipeline.
// A nil receiver is a no-op so wiring stays optional.
type IntakeMetrics struct {
	submissionsTotal *prometheus.CounterVec
	submitLatency    *prometheus.HistogramVec
	notifyFailures   prometheus.Counter
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "park63",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total lead submissions by outcome and source",
		}, []string{"outcome", "source"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "park63",
			Subsystem: "intake",
			Name:      "submit_latency_seconds",
			Help:      "Latency of submission pipeline processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "park63",
			Subsystem: "intake",
			Name:      "notify_failures_total",
			Help:      "Total failed CRM/email notification deliveries",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submitLatency, m.notifyFailures)
	return m
}

func (m *IntakeMetrics) ObserveSubmission(outcome, source string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome, source).Inc()
	m.submitLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *IntakeMetrics) ObserveNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
