package metrics

import "github.com/prometheus/client_golang/prometheus"

// Strategy-specific counter vectors
var (
	StrategySignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_signals_total",
		Help:      "Total number of non-HOLD signals by strategy and type",
	}, []string{"strategy_id", "signal"})

	StrategyFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_fallbacks_total",
		Help:      "Generator runs that had too little history for their warm-up",
	}, []string{"strategy_id"})
)

// RecordSignals adds signal counts for a strategy.
func RecordSignals(strategyID string, buys, sells int) {
	StrategySignalsTotal.WithLabelValues(strategyID, "BUY").Add(float64(buys))
	StrategySignalsTotal.WithLabelValues(strategyID, "SELL").Add(float64(sells))
}

// RecordStrategyFallback counts a fallback generator run.
func RecordStrategyFallback(strategyID string) {
	StrategyFallbacksTotal.WithLabelValues(strategyID).Inc()
}
