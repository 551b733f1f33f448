package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stampState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "klingnet_stamp",
		Subsystem: "orchestrator",
		Name:      "state",
		Help:      "1 for the state the current run is in, 0 otherwise.",
	}, []string{"state"})
	stampStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "klingnet_stamp",
		Subsystem: "orchestrator",
		Name:      "steps_total",
		Help:      "Count of orchestrator steps by event and status.",
	}, []string{"event", "status"})
	stampStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "klingnet_stamp",
		Subsystem: "orchestrator",
		Name:      "step_duration_seconds",
		Help:      "Duration of orchestrator steps.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"event", "status"})
)

// Orchestrator tracks metrics for stamp runs.
type Orchestrator struct {
	last string
}

// NewOrchestrator constructs an Orchestrator collector.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{}
}

// SetState marks state as current.
func (m *Orchestrator) SetState(state string) {
	if m.last != "" {
		stampState.WithLabelValues(m.last).Set(0)
	}
	stampState.WithLabelValues(state).Set(1)
	m.last = state
}

// ObserveStep records one step outcome and duration.
func (m *Orchestrator) ObserveStep(event string, err error, started time.Time) {
	status := statusOf(err)
	stampStepsTotal.WithLabelValues(event, status).Inc()
	stampStepDuration.WithLabelValues(event, status).Observe(time.Since(started).Seconds())
}
