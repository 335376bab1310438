package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records metadata for the outbox publisher loop.
type OutboxMetrics struct {
	duration  *prometheus.HistogramVec
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of outbox publish batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published",
		Help: "Outbox events published successfully.",
	}, []string{"topic"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed",
		Help: "Outbox events that failed to publish.",
	}, []string{"topic"})
	reg.MustRegister(duration, published, failed)
	return &OutboxMetrics{
		duration:  duration,
		published: published,
		failed:    failed,
	}
}

// ObserveBatch records the duration of one publish batch.
func (m *OutboxMetrics) ObserveBatch(topic string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(topic)).Observe(elapsed.Seconds())
}

// IncPublished increments the published counter for the topic.
func (m *OutboxMetrics) IncPublished(topic string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncFailed increments the failure counter for the topic.
func (m *OutboxMetrics) IncFailed(topic string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(topic)).Inc()
}
