// Package metrics holds the Prometheus collectors of the GroupTab server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "grouptab"

// Metrics groups the server's collectors. Create one per registry.
type Metrics struct {
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	TransactionsRecorded *prometheus.CounterVec
	AmountRecorded       prometheus.Counter
	DebtsSettled         prometheus.Counter
	DebtChanges          *prometheus.CounterVec
	EventPublishFailures prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC requests by procedure and Connect status code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		TransactionsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_recorded_total",
			Help:      "Expense transactions recorded by split policy.",
		}, []string{"policy"}),
		AmountRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_amount_total",
			Help:      "Sum of recorded expense totals.",
		}),
		DebtsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debts_settled_total",
			Help:      "Debts settled in full.",
		}),
		DebtChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_debt_changes_total",
			Help:      "Debt rows written by the ledger, by operation.",
		}, []string{"op"}),
		EventPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Ledger events that could not be published.",
		}),
	}

	reg.MustRegister(
		m.RPCRequests,
		m.RPCDuration,
		m.TransactionsRecorded,
		m.AmountRecorded,
		m.DebtsSettled,
		m.DebtChanges,
		m.EventPublishFailures,
	)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus the server's own metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, New(reg)
}

// ObserveDebtChanges counts the rows of one committed debt batch.
func (m *Metrics) ObserveDebtChanges(upserts, deletes int) {
	m.DebtChanges.WithLabelValues("upsert").Add(float64(upserts))
	m.DebtChanges.WithLabelValues("delete").Add(float64(deletes))
}
