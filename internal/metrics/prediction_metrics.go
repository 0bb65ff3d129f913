package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of predictions by direction and mode",
	}, []string{"direction", "mode"})

	PredictionConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_confidence",
		Help:      "Confidence of generated predictions",
		Buckets:   []float64{40, 50, 60, 70, 80, 90, 100},
	})
)

// RecordPrediction records a generated prediction. mode is "ensemble" or "degraded".
func RecordPrediction(direction, mode string, confidence int) {
	PredictionsTotal.WithLabelValues(direction, mode).Inc()
	PredictionConfidence.Observe(float64(confidence))
}
