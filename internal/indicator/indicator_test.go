package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomWalk(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	price := 100.0
	for i := range prices {
		price *= 1 + (rng.Float64()-0.5)*0.04
		prices[i] = price
	}
	return prices
}

func TestSMAMatchesBruteForceMean(t *testing.T) {
	prices := randomWalk(7, 120)
	for _, period := range []int{1, 2, 5, 20, 120} {
		sma := SMA(prices, period)
		require.Len(t, sma, len(prices)-period+1, "period %d", period)
		for i, value := range sma {
			sum := 0.0
			for j := i; j < i+period; j++ {
				sum += prices[j]
			}
			assert.InDelta(t, sum/float64(period), value, 1e-9, "period %d index %d", period, i)
		}
	}
}

func TestSMATooShort(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2}, 3))
	assert.Nil(t, SMA(nil, 1))
	assert.Nil(t, SMA([]float64{1, 2}, 0))
}

func TestEMASeededByFirstPrice(t *testing.T) {
	ema := EMA([]float64{1, 2, 3}, 3)
	require.Len(t, ema, 3)
	assert.InDelta(t, 1.0, ema[0], 1e-12)
	assert.InDelta(t, 1.5, ema[1], 1e-12)
	assert.InDelta(t, 2.25, ema[2], 1e-12)
	assert.Nil(t, EMA(nil, 3))
}

func TestRSIHandComputed(t *testing.T) {
	rsi := RSI([]float64{1, 2, 1, 2, 1}, 2)
	require.Len(t, rsi, 3)
	assert.InDelta(t, 50.0, rsi[0], 1e-9)
	assert.InDelta(t, 75.0, rsi[1], 1e-9)
	assert.InDelta(t, 37.5, rsi[2], 1e-9)
}

func TestRSISaturatesOnGains(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	rsi := RSI(prices, 14)
	require.Len(t, rsi, 16)
	for _, v := range rsi {
		assert.Equal(t, 100.0, v)
	}
}

func TestRSIBounded(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		for _, v := range RSI(randomWalk(seed, 200), 14) {
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestRSITooShort(t *testing.T) {
	assert.Nil(t, RSI([]float64{1, 2, 3}, 3))
	assert.Len(t, RSI([]float64{1, 2, 3, 4}, 3), 1)
}

func TestBollingerPopulationStdDev(t *testing.T) {
	bands := Bollinger([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
	require.Equal(t, 1, bands.Len())
	assert.InDelta(t, 5.0, bands.Middle[0], 1e-12)
	assert.InDelta(t, 9.0, bands.Upper[0], 1e-12)
	assert.InDelta(t, 1.0, bands.Lower[0], 1e-12)
}

func TestBollingerAlignsWithSMA(t *testing.T) {
	prices := randomWalk(3, 60)
	bands := Bollinger(prices, 20, 2)
	sma := SMA(prices, 20)
	require.Equal(t, len(sma), bands.Len())
	for i := range sma {
		assert.InDelta(t, sma[i], bands.Middle[i], 1e-12)
		assert.GreaterOrEqual(t, bands.Upper[i], bands.Middle[i])
		assert.LessOrEqual(t, bands.Lower[i], bands.Middle[i])
	}
	assert.Equal(t, 0, Bollinger(prices[:5], 20, 2).Len())
}

func TestMACDFullLength(t *testing.T) {
	prices := randomWalk(11, 80)
	macd := MACD(prices, 12, 26, 9)
	require.Equal(t, len(prices), macd.Len())
	require.Len(t, macd.Signal, len(prices))
	fast := EMA(prices, 12)
	slow := EMA(prices, 26)
	for i := range prices {
		assert.InDelta(t, fast[i]-slow[i], macd.MACD[i], 1e-9)
		assert.InDelta(t, macd.MACD[i]-macd.Signal[i], macd.Histogram[i], 1e-9)
	}
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	prices := []float64{50, 50, 50, 50, 50}
	macd := MACD(prices, 12, 26, 9)
	for i := range prices {
		assert.Equal(t, 0.0, macd.MACD[i])
		assert.Equal(t, 0.0, macd.Histogram[i])
	}
	assert.Equal(t, 0, MACD(nil, 12, 26, 9).Len())
}

func TestLinearRegression(t *testing.T) {
	fit := LinearRegression([]float64{1, 3, 5, 7})
	assert.InDelta(t, 2.0, fit.Slope, 1e-12)
	assert.InDelta(t, 1.0, fit.Intercept, 1e-12)
	assert.InDelta(t, 1.0, fit.R2, 1e-12)

	flat := LinearRegression([]float64{4, 4, 4})
	assert.Equal(t, 0.0, flat.Slope)
	assert.Equal(t, 0.0, flat.R2)
	assert.InDelta(t, 4.0, flat.Intercept, 1e-12)

	single := LinearRegression([]float64{9})
	assert.Equal(t, 0.0, single.Slope)
}

func TestStdDev(t *testing.T) {
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, Mean(nil))
}
