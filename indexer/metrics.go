package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LastIndexedBlock    *prometheus.GaugeVec
	IndexedTransactions *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
}

// NewMetrics registers the indexer metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LastIndexedBlock: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bridge_last_indexed_block",
			Help: "The last block scanned for bridge traffic.",
		}, []string{"chain"}),
		IndexedTransactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_indexed_transactions_total",
			Help: "Deposits and withdrawals found while scanning.",
		}, []string{"type"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_status_transitions_total",
			Help: "Status changes of tracked deposits and withdrawals.",
		}, []string{"type", "status"}),
	}
}
