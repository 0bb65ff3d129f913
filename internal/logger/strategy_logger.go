package logger

import (
	"github.com/sirupsen/logrus"
)

// StrategyLogger provides dedicated logging for signal generation.
type StrategyLogger struct {
	*logrus.Entry
}

// NewStrategyLogger creates a new strategy logger.
func NewStrategyLogger(baseLogger *logrus.Logger) *StrategyLogger {
	return &StrategyLogger{
		Entry: baseLogger.WithField("component", "strategy"),
	}
}

// LogSignalGeneration logs the outcome of one generator run.
func (sl *StrategyLogger) LogSignalGeneration(strategyID, symbol string, bars, buys, sells int, fallback bool, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"strategy_id":   strategyID,
		"symbol":        symbol,
		"bars":          bars,
		"buy_signals":   buys,
		"sell_signals":  sells,
		"fallback":      fallback,
		"generation_ms": durationMs,
	}).Info("Signals generated")
}

// LogInsufficientHistory logs a generator falling back because the series is shorter than its warm-up.
func (sl *StrategyLogger) LogInsufficientHistory(strategyID, symbol string, bars int, err error) {
	sl.WithFields(logrus.Fields{
		"strategy_id": strategyID,
		"symbol":      symbol,
		"bars":        bars,
	}).WithError(err).Warn("Strategy fell back to default signals")
}

// LogParameterRejection logs a parameter set that failed validation.
func (sl *StrategyLogger) LogParameterRejection(strategyID string, params map[string]any, err error) {
	sl.WithFields(logrus.Fields{
		"strategy_id": strategyID,
		"parameters":  params,
	}).WithError(err).Warn("Strategy parameters rejected")
}
