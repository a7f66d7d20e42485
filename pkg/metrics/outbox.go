package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Relay outcomes for a single outbox row.
const (
	OutboxPublished = "published"
	OutboxRetried   = "retried"
	OutboxParked    = "parked"
)

// OutboxMetrics tracks the order event relay and its backlog.
type OutboxMetrics struct {
	events  *prometheus.CounterVec
	batches prometheus.Histogram
	backlog prometheus.Gauge
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_events_total",
			Help: "Outbox rows handled by the relay, by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		batches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "outbox_batch_duration_seconds",
			Help:    "Time spent draining one outbox batch.",
			Buckets: prometheus.DefBuckets,
		}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_backlog",
			Help: "Outbox rows still waiting to be published.",
		}),
	}
	reg.MustRegister(m.events, m.batches, m.backlog)
	return m
}

func (m *OutboxMetrics) Record(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}

func (m *OutboxMetrics) ObserveBatch(elapsed time.Duration) {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Observe(elapsed.Seconds())
}

func (m *OutboxMetrics) SetBacklog(pending int64) {
	if m == nil || m.backlog == nil {
		return
	}
	m.backlog.Set(float64(pending))
}
