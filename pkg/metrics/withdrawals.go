package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WithdrawalMetrics records outcomes for the vendor withdrawal pipeline.
type WithdrawalMetrics struct {
	transferDuration *prometheus.HistogramVec
	outcomes         *prometheus.CounterVec
	reconciliation   prometheus.Counter
}

// NewWithdrawalMetrics registers the withdrawal metrics on the provided registerer.
func NewWithdrawalMetrics(reg prometheus.Registerer) *WithdrawalMetrics {
	if reg == nil {
		return &WithdrawalMetrics{}
	}
	transferDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "withdrawal_transfer_duration_seconds",
		Help:    "Duration of external transfer calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawal_outcomes",
		Help: "Terminal withdrawal outcomes by status.",
	}, []string{"status"})
	reconciliation := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "withdrawal_reconciliation_required",
		Help: "Withdrawals stuck pending after a provider response.",
	})
	reg.MustRegister(transferDuration, outcomes, reconciliation)
	return &WithdrawalMetrics{
		transferDuration: transferDuration,
		outcomes:         outcomes,
		reconciliation:   reconciliation,
	}
}

// ObserveTransfer records the latency of one provider transfer call.
func (m *WithdrawalMetrics) ObserveTransfer(outcome string, duration time.Duration) {
	if m == nil || m.transferDuration == nil {
		return
	}
	m.transferDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOutcome increments the terminal status counter.
func (m *WithdrawalMetrics) IncOutcome(status string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncReconciliationRequired counts entries an operator has to resolve by hand.
func (m *WithdrawalMetrics) IncReconciliationRequired() {
	if m == nil || m.reconciliation == nil {
		return
	}
	m.reconciliation.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
