package backtest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/strategy"
)

func walkBars(seed int64, n int) []models.PricePoint {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	price := 100.0
	for i := range prices {
		price *= 1 + (rng.Float64()-0.5)*0.06
		prices[i] = price
	}
	return makeBars(prices...)
}

func TestRunWalkForward(t *testing.T) {
	bars := walkBars(17, 300)
	def, err := strategy.DefaultRegistry().Lookup(string(strategy.KindRSI))
	require.NoError(t, err)
	params, err := def.Resolve(nil)
	require.NoError(t, err)

	result, err := RunWalkForward(context.Background(), bars, def, params, WalkForwardConfig{
		Windows:        4,
		InitialCapital: 10000,
		Commission:     1,
	})
	require.NoError(t, err)
	require.Len(t, result.Windows, 4)

	assert.Equal(t, bars[0].Date, result.Windows[0].TrainStart)
	assert.Equal(t, bars[99].Date, result.Windows[0].TrainEnd)
	assert.Equal(t, bars[100].Date, result.Windows[0].TestStart)
	assert.Equal(t, bars[149].Date, result.Windows[0].TestEnd)
	assert.Equal(t, bars[50].Date, result.Windows[1].TrainStart)
	assert.Equal(t, bars[150].Date, result.Windows[1].TestStart)
	assert.Equal(t, bars[299].Date, result.Windows[3].TestEnd)

	assert.GreaterOrEqual(t, result.ConsistencyScore, 0.0)
	assert.LessOrEqual(t, result.ConsistencyScore, 1.0)

	total := 0.0
	for _, w := range result.Windows {
		total += w.TestMetrics.TotalReturn
	}
	assert.InDelta(t, total/4, result.AggregatedMetrics.TotalReturn, 1e-9)
}

func TestRunWalkForwardNeedsEnoughBars(t *testing.T) {
	def, err := strategy.DefaultRegistry().Lookup(string(strategy.KindRSI))
	require.NoError(t, err)

	_, err = RunWalkForward(context.Background(), walkBars(1, 10), def, nil, WalkForwardConfig{Windows: 4, InitialCapital: 1000})
	assert.Error(t, err)
}

func TestRunWalkForwardMinTradesDropsQuietWindows(t *testing.T) {
	def, err := strategy.DefaultRegistry().Lookup(string(strategy.KindBollingerBands))
	require.NoError(t, err)
	params, err := def.Resolve(nil)
	require.NoError(t, err)

	flat := make([]float64, 120)
	for i := range flat {
		flat[i] = 50
	}
	result, err := RunWalkForward(context.Background(), makeBars(flat...), def, params, WalkForwardConfig{
		Windows: 3, MinTrades: 1, InitialCapital: 1000,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Windows)
	assert.Equal(t, 0.0, result.ConsistencyScore)
}

func TestEngineRunWalkForward(t *testing.T) {
	source := &fakeSource{bars: map[string][]models.PricePoint{"SBIN": walkBars(5, 240)}}
	engine := newTestEngine(t, source, EngineOptions{WalkForwardWindows: 3})

	cfg := BacktestConfig{InitialCapital: 10000, StartDate: "2024-01-01", EndDate: "2024-08-27", Commission: 2}
	result, err := engine.RunWalkForward(context.Background(), models.Stock{Symbol: "SBIN"}, string(strategy.KindMACD), nil, cfg)
	require.NoError(t, err)
	assert.Len(t, result.Windows, 3)

	_, err = engine.RunWalkForward(context.Background(), models.Stock{Symbol: "SBIN"}, "nope", nil, cfg)
	assert.ErrorIs(t, err, models.ErrUnknownStrategy)
}

func TestCalculateConsistency(t *testing.T) {
	windows := []WalkForwardWindow{
		{TestMetrics: Metrics{TotalReturn: 5}},
		{TestMetrics: Metrics{TotalReturn: -1}},
		{TestMetrics: Metrics{TotalReturn: 2}},
		{TestMetrics: Metrics{TotalReturn: 0}},
	}
	assert.Equal(t, 0.5, CalculateConsistency(windows))
	assert.Equal(t, 0.0, CalculateConsistency(nil))
}
