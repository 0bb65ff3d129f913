package logger

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/models"
)

// PredictionLogger provides dedicated logging for the prediction ensemble.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPrediction logs a generated prediction.
func (pl *PredictionLogger) LogPrediction(p *models.Prediction, cacheHit bool, latencyMs float64) {
	pl.WithFields(logrus.Fields{
		"symbol":     p.StockSymbol,
		"days":       p.Days,
		"direction":  p.PredictedDirection,
		"confidence": p.Confidence,
		"price":      p.PredictedPrice,
		"degraded":   p.Degraded,
		"cache_hit":  cacheHit,
		"latency_ms": latencyMs,
	}).Info("Prediction generated")
}

// LogVotes logs the individual sub-model votes behind a prediction.
func (pl *PredictionLogger) LogVotes(symbol string, votes map[string]string, upScore, downScore float64) {
	pl.WithFields(logrus.Fields{
		"symbol":     symbol,
		"votes":      votes,
		"up_score":   upScore,
		"down_score": downScore,
	}).Debug("Ensemble votes tallied")
}

// LogDegraded logs a prediction produced without enough history.
func (pl *PredictionLogger) LogDegraded(symbol string, points int) {
	pl.WithFields(logrus.Fields{
		"symbol": symbol,
		"points": points,
	}).Warn("Insufficient history, returning degraded prediction")
}

// LogPredictionError logs a failed prediction.
func (pl *PredictionLogger) LogPredictionError(symbol string, err error) {
	pl.WithField("symbol", symbol).WithError(err).Error("Prediction failed")
}
