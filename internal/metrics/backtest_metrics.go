package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by strategy, method and status",
	}, []string{"strategy_id", "method", "status"})

	SimulatedTradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulated_trades_total",
		Help:      "Total number of simulated fills by strategy and side",
	}, []string{"strategy_id", "side"})
)

// Backtest histograms and gauges
var (
	BacktestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"method"})

	BacktestTotalReturn = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_total_return_percent",
		Help:      "Total return of the most recent run per symbol and strategy",
	}, []string{"symbol", "strategy_id"})

	BacktestCompositeScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_composite_score",
		Help:      "Composite scores of aggregated backtest evaluations by strategy",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	}, []string{"strategy_id"})
)

// RecordBacktestRun records a backtest run event.
// method should be one of: "replay", "monte_carlo", "walk_forward"
// status should be one of: "success", "failure"
func RecordBacktestRun(strategyID, method, status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(strategyID, method, status).Inc()
	BacktestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordSimulatedTrade counts one simulated fill.
func RecordSimulatedTrade(strategyID, side string) {
	SimulatedTradesTotal.WithLabelValues(strategyID, side).Inc()
}

// UpdateTotalReturn sets the latest total return for a symbol and strategy.
func UpdateTotalReturn(symbol, strategyID string, returnPercent float64) {
	BacktestTotalReturn.WithLabelValues(symbol, strategyID).Set(returnPercent)
}

// RecordCompositeScore records a composite score from an aggregated evaluation.
func RecordCompositeScore(strategyID string, score float64) {
	BacktestCompositeScore.WithLabelValues(strategyID).Observe(score)
}
