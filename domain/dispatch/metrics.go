package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
	outcomeReplayed  = "replayed"
	outcomeInFlight  = "in_flight"
	outcomeRejected  = "rejected"
)

type dispatchMetrics struct {
	submissions      *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
}

// newDispatchMetrics returns nil when reg is nil; all methods accept a nil receiver.
func newDispatchMetrics(reg prometheus.Registerer) *dispatchMetrics {
	if reg == nil {
		return nil
	}

	m := &dispatchMetrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_submissions_total",
				Help: "Submissions received by the dispatch endpoint, by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		deliveryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_delivery_failures_total",
				Help: "Email delivery failures, by kind and failed stage.",
			},
			[]string{"kind", "stage"},
		),
		deliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_delivery_duration_seconds",
				Help:    "Time spent delivering both emails of a submission.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(m.submissions, m.deliveryFailures, m.deliveryDuration)
	return m
}

func (m *dispatchMetrics) outcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, outcome).Inc()
}

func (m *dispatchMetrics) failure(kind, stage string) {
	if m == nil {
		return
	}
	m.deliveryFailures.WithLabelValues(kind, stage).Inc()
}

func (m *dispatchMetrics) observeDelivery(kind string, started time.Time) {
	if m == nil {
		return
	}
	m.deliveryDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
