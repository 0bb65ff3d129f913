package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordBacktestRun(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("rsi-strategy", "replay", "success"))

	RecordBacktestRun("rsi-strategy", "replay", "success", 0.02)

	after := testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("rsi-strategy", "replay", "success"))
	assert.Equal(t, before+1, after)
}

func TestRecordSignals(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(StrategySignalsTotal.WithLabelValues("macd-strategy", "BUY"))

	RecordSignals("macd-strategy", 3, 2)

	assert.Equal(t, before+3, testutil.ToFloat64(StrategySignalsTotal.WithLabelValues("macd-strategy", "BUY")))
}

func TestUpdateTotalReturn(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"positive return", 12.5},
		{"zero return", 0},
		{"negative return", -30},
	}

	InitRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			UpdateTotalReturn("AAPL", "bollinger-bands", tt.value)
			assert.Equal(t, tt.value, testutil.ToFloat64(BacktestTotalReturn.WithLabelValues("AAPL", "bollinger-bands")))
		})
	}
}

func TestRecordCacheLookupRatio(t *testing.T) {
	InitRegistry()

	RecordCacheLookup("ratio-test", true)
	RecordCacheLookup("ratio-test", false)
	RecordCacheLookup("ratio-test", true)
	RecordCacheLookup("ratio-test", true)

	assert.InDelta(t, 0.75, testutil.ToFloat64(CacheHitRatio.WithLabelValues("ratio-test")), 1e-9)
	assert.Equal(t, 3.0, testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("ratio-test", "hit")))
}

func TestRecordPredictionAndDataSource(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPrediction("UP", "ensemble", 72)
		RecordDataSourceRequest("csv", "history", "success", 0.001)
		RecordSimulatedTrade("mean-reversion", "BUY")
		RecordStrategyFallback("moving-average-crossover")
		RecordCompositeScore("rsi-strategy", 0.55)
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	InitRegistry()
	RecordBacktestRun("handler-test", "replay", "success", 0.1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tradesim_backtest_runs_total")
}
