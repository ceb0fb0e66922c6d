// Package metrics holds the Prometheus collectors exposed on /metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feedledger"

type Metrics struct {
	feedingsRecorded     prometheus.Counter
	feedingsRejected     *prometheus.CounterVec
	feedingsDeleted      prometheus.Counter
	compensationFailures *prometheus.CounterVec
	notifications        *prometheus.CounterVec
	httpRequests         *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		feedingsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedings_recorded_total",
			Help:      "Feeding records created.",
		}),
		feedingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedings_rejected_total",
			Help:      "Feeding submissions rejected, by reason.",
		}, []string{"reason"}),
		feedingsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedings_deleted_total",
			Help:      "Feeding records deleted.",
		}),
		compensationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensation_failures_total",
			Help:      "Failed cleanup steps after a feeding record deletion, by step.",
		}, []string{"step"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries, by channel and outcome.",
		}, []string{"channel", "outcome"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.feedingsRecorded,
			m.feedingsRejected,
			m.feedingsDeleted,
			m.compensationFailures,
			m.notifications,
			m.httpRequests,
		)
	}
	return m
}

func (m *Metrics) FeedingRecorded() {
	if m == nil {
		return
	}
	m.feedingsRecorded.Inc()
}

func (m *Metrics) FeedingRejected(reason string) {
	if m == nil {
		return
	}
	m.feedingsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) FeedingDeleted() {
	if m == nil {
		return
	}
	m.feedingsDeleted.Inc()
}

func (m *Metrics) CompensationFailed(step string) {
	if m == nil {
		return
	}
	m.compensationFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) Notification(channel, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Observe(seconds)
}
