package metrics

import "github.com/prometheus/client_golang/prometheus"

// Transition outcomes recorded by EntryMetrics.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// EntryMetrics counts entry workflow transitions (submit, approve, reject) by outcome.
type EntryMetrics struct {
	transitions *prometheus.CounterVec
}

func NewEntryMetrics(reg prometheus.Registerer) *EntryMetrics {
	if reg == nil {
		return &EntryMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entry_transitions_total",
		Help: "Entry workflow transitions by kind and outcome.",
	}, []string{"transition", "outcome"})
	reg.MustRegister(transitions)
	return &EntryMetrics{transitions: transitions}
}

// Observe records one attempt at the named transition.
func (m *EntryMetrics) Observe(transition, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition), normalizeLabel(outcome)).Inc()
}
