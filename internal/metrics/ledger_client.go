// Package metrics exposes Prometheus collectors for the stamp tools.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "klingnet_stamp",
		Subsystem: "ledger_client",
		Name:      "operations_total",
		Help:      "Count of ledger node operations.",
	}, []string{"operation", "network", "status"})
	ledgerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "klingnet_stamp",
		Subsystem: "ledger_client",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger node operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "network", "status"})
)

// LedgerClient tracks metrics for calls to a ledger node.
type LedgerClient struct {
	network string
}

// NewLedgerClient constructs a metrics collector for ledger calls.
func NewLedgerClient(network string) *LedgerClient {
	if network == "" {
		network = "unknown"
	}
	return &LedgerClient{network: network}
}

// Observe records a single call outcome and duration.
func (m LedgerClient) Observe(operation string, err error, started time.Time) {
	status := statusOf(err)
	ledgerRequestsTotal.WithLabelValues(operation, m.network, status).Inc()
	ledgerRequestDuration.WithLabelValues(operation, m.network, status).Observe(time.Since(started).Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
