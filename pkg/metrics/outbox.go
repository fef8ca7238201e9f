package metrics

import "github.com/prometheus/client_golang/prometheus"

// Relay results recorded by OutboxMetrics.
const (
	RelayPublished    = "published"
	RelayRetry        = "retry"
	RelayDeadLettered = "dead_lettered"
)

// OutboxMetrics counts what the outbox publisher did with each row it claimed.
type OutboxMetrics struct {
	relayed *prometheus.CounterVec
	batches prometheus.Counter
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	relayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox rows handled by the publisher, by event type and result.",
	}, []string{"event_type", "result"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_batches_total",
		Help: "Non-empty outbox batches claimed by the publisher.",
	})
	reg.MustRegister(relayed, batches)
	return &OutboxMetrics{relayed: relayed, batches: batches}
}

// Observe records the result for a single row.
func (m *OutboxMetrics) Observe(eventType, result string) {
	if m == nil || m.relayed == nil {
		return
	}
	m.relayed.WithLabelValues(normalizeLabel(eventType), result).Inc()
}

// IncBatch records a claimed batch that contained at least one row.
func (m *OutboxMetrics) IncBatch() {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Inc()
}
