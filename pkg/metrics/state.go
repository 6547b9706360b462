package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StateMetrics records the observable side effects of session-state work:
// usage notification delivery, mirror write failures, and live event streams.
type StateMetrics struct {
	usageDuration *prometheus.HistogramVec
	usageTotal    *prometheus.CounterVec
	mirrorFailure *prometheus.CounterVec
	eventDropped  *prometheus.CounterVec
	subscribers   prometheus.Gauge
}

// NewStateMetrics registers the session-state metrics on the provided registerer.
func NewStateMetrics(reg prometheus.Registerer) *StateMetrics {
	if reg == nil {
		return &StateMetrics{}
	}
	usageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "usage_notify_duration_seconds",
		Help:    "Duration of usage notification deliveries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	usageTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usage_notify_total",
		Help: "Usage notification attempts by outcome.",
	}, []string{"outcome"})
	mirrorFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_write_failures_total",
		Help: "Best-effort mirror writes that failed.",
	}, []string{"op"})
	eventDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_events_publish_failures_total",
		Help: "Session event publishes that failed.",
	}, []string{"event"})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "session_event_subscribers",
		Help: "Currently attached session event streams.",
	})
	reg.MustRegister(usageDuration, usageTotal, mirrorFailure, eventDropped, subscribers)
	return &StateMetrics{
		usageDuration: usageDuration,
		usageTotal:    usageTotal,
		mirrorFailure: mirrorFailure,
		eventDropped:  eventDropped,
		subscribers:   subscribers,
	}
}

// ObserveUsageDelivery records one usage notification attempt.
func (m *StateMetrics) ObserveUsageDelivery(outcome string, duration time.Duration) {
	if m == nil || m.usageTotal == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.usageTotal.WithLabelValues(label).Inc()
	m.usageDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncMirrorWriteFailure counts a failed write-through for the named operation.
func (m *StateMetrics) IncMirrorWriteFailure(op string) {
	if m == nil || m.mirrorFailure == nil {
		return
	}
	m.mirrorFailure.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncEventPublishFailure counts a session event that could not be published.
func (m *StateMetrics) IncEventPublishFailure(event string) {
	if m == nil || m.eventDropped == nil {
		return
	}
	m.eventDropped.WithLabelValues(normalizeLabel(event)).Inc()
}

// SubscriberAttached bumps the live stream gauge.
func (m *StateMetrics) SubscriberAttached() {
	if m == nil || m.subscribers == nil {
		return
	}
	m.subscribers.Inc()
}

// SubscriberDetached drops the live stream gauge.
func (m *StateMetrics) SubscriberDetached() {
	if m == nil || m.subscribers == nil {
		return
	}
	m.subscribers.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
