package sync

import "github.com/prometheus/client_golang/prometheus"

var syncRunsMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hitbtc_sync_runs_total",
		Help: "sync passes by kind and outcome",
	},
	[]string{"kind", "status"},
)

var syncedTradesMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hitbtc_sync_saved_trades_total",
		Help: "trade fills stored by the sync service",
	},
	[]string{"symbol"},
)

func init() {
	prometheus.MustRegister(
		syncRunsMetrics,
		syncedTradesMetrics,
	)
}
