package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "klingnet_stamp",
		Subsystem: "poller",
		Name:      "attempts_total",
		Help:      "Count of output spend-state queries by result.",
	}, []string{"result"})
	pollWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "klingnet_stamp",
		Subsystem: "poller",
		Name:      "wait_duration_seconds",
		Help:      "Time from the first query until the output was seen spent or the wait failed.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"status"})
)

// Poll attempt results.
const (
	PollSpent    = "spent"
	PollUnspent  = "unspent"
	PollNotFound = "not_found"
	PollError    = "error"
)

// Poller tracks metrics for confirmation polling.
type Poller struct{}

// NewPoller constructs a Poller collector.
func NewPoller() *Poller {
	return &Poller{}
}

// ObserveAttempt records one spend-state query.
func (Poller) ObserveAttempt(result string) {
	pollAttemptsTotal.WithLabelValues(result).Inc()
}

// ObserveWait records a complete wait.
func (Poller) ObserveWait(err error, started time.Time) {
	pollWaitDuration.WithLabelValues(statusOf(err)).Observe(time.Since(started).Seconds())
}
