// Package metrics provides the Prometheus registry for backtests, predictions and data sources.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradesim"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(SimulatedTradesTotal)
		registry.MustRegister(BacktestTotalReturn)
		registry.MustRegister(BacktestCompositeScore)

		// Strategy metrics
		registry.MustRegister(StrategySignalsTotal)
		registry.MustRegister(StrategyFallbacksTotal)

		// Prediction metrics
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(PredictionConfidence)

		// Data source metrics
		registry.MustRegister(DataSourceRequestsTotal)
		registry.MustRegister(DataSourceLatency)
		registry.MustRegister(CacheRequestsTotal)
		registry.MustRegister(CacheHitRatio)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
