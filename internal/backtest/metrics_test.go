package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/models"
)

func curveOf(values ...float64) EquityCurve {
	bars := makeBars(values...)
	curve := make(EquityCurve, len(values))
	for i, v := range values {
		curve[i] = models.EquityPoint{Date: bars[i].Date, Value: v}
	}
	return curve
}

func pnl(v float64) *float64 { return &v }

func TestCalculateMetrics(t *testing.T) {
	state := &SimulationState{
		InitialCapital: 1000,
		EquityCurve:    curveOf(1000, 1100, 990, 1210),
		Trades: []models.Trade{
			{Type: models.TradeTypeBuy},
			{Type: models.TradeTypeSell, PnL: pnl(100)},
			{Type: models.TradeTypeBuy},
			{Type: models.TradeTypeSell, PnL: pnl(-50)},
		},
	}

	m := CalculateMetrics(state, 365, 0)
	assert.InDelta(t, 21.0, m.TotalReturn, 1e-9)
	assert.InDelta(t, 21.0, m.AnnualizedReturn, 1e-9)
	assert.InDelta(t, 10.0, m.MaxDrawdown, 1e-9)
	assert.Equal(t, 1210.0, m.FinalValue)
	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.ClosedTrades)
	assert.InDelta(t, 50.0, m.WinRate, 1e-9)
	assert.InDelta(t, 2.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 25.0, m.Expectancy, 1e-9)
	assert.Equal(t, 100.0, m.LargestWin)
	assert.Equal(t, -50.0, m.LargestLoss)
	assert.InDelta(t, 21.0/10.0, m.CalmarRatio, 1e-9)
	assert.Equal(t, 0.0, m.CurrentDrawdown)

	returns := state.EquityCurve.GetReturns()
	assert.InDelta(t, indicator.StdDev(returns)*math.Sqrt(252)*100, m.Volatility, 1e-9)
	assert.InDelta(t, indicator.Mean(returns)/state.EquityCurve.GetDownsideDeviation()*math.Sqrt(252), m.SortinoRatio, 1e-9)
}

func TestCurrentDrawdownMeasuresLastPoint(t *testing.T) {
	state := &SimulationState{InitialCapital: 1000, EquityCurve: curveOf(1000, 1250, 1100, 1000)}

	m := CalculateMetrics(state, 30, 0)
	assert.InDelta(t, 20.0, m.CurrentDrawdown, 1e-9)
	assert.InDelta(t, 20.0, m.MaxDrawdown, 1e-9)

	state.EquityCurve = curveOf(1000, 1250, 1000, 1200)
	m = CalculateMetrics(state, 30, 0)
	assert.InDelta(t, 4.0, m.CurrentDrawdown, 1e-9)
	assert.InDelta(t, 20.0, m.MaxDrawdown, 1e-9)
}

func TestAnnualizedReturnScalesWithDays(t *testing.T) {
	state := &SimulationState{InitialCapital: 100, EquityCurve: curveOf(100, 110)}

	assert.InDelta(t, 36.5, CalculateMetrics(state, 100, 0).AnnualizedReturn, 1e-9)
	assert.Equal(t, 0.0, CalculateMetrics(state, 0, 0).AnnualizedReturn)
	assert.Equal(t, 0.0, CalculateMetrics(state, -3, 0).AnnualizedReturn)
}

func TestFlatCurveHasNoRiskOrReturn(t *testing.T) {
	state := &SimulationState{InitialCapital: 500, EquityCurve: curveOf(500, 500, 500, 500)}
	m := CalculateMetrics(state, 30, 0)

	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.SortinoRatio)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.ProfitFactor)
	assert.Equal(t, 0.0, m.WinRate)
}

func TestDrawdownPeakSeededAtInitialCapital(t *testing.T) {
	curve := curveOf(900, 950)
	assert.InDelta(t, 10.0, curve.MaxDrawdown(1000), 1e-9)
	assert.InDelta(t, 0.0, curve.MaxDrawdown(900), 1e-9)
	assert.InDeltaSlice(t, []float64{10, 5}, curve.Drawdowns(1000), 1e-9)
}

func TestSharpeAndSortino(t *testing.T) {
	returns := []float64{0.01, 0.02, -0.01, 0.03}

	sharpe := riskAdjustedReturn(returns, indicator.StdDev(returns), 0)
	assert.InDelta(t, indicator.Mean(returns)/indicator.StdDev(returns)*math.Sqrt(252), sharpe, 1e-9)
	assert.InDelta(t, 0.0125/0.01*math.Sqrt(252), riskAdjustedReturn(returns, downsideDeviation(returns), 0), 1e-9)

	assert.Equal(t, 0.0, riskAdjustedReturn(nil, 0.1, 0))
	assert.Equal(t, 0.0, riskAdjustedReturn([]float64{0.01, 0.02}, downsideDeviation([]float64{0.01, 0.02}), 0))
	assert.Less(t, riskAdjustedReturn(returns, indicator.StdDev(returns), 0.05), sharpe)
}

func TestProfitFactorSentinels(t *testing.T) {
	assert.Equal(t, 999.0, calculateProfitFactor([]float64{10, 5}))
	assert.Equal(t, 0.0, calculateProfitFactor(nil))
	assert.Equal(t, 0.0, calculateProfitFactor([]float64{-4}))
	assert.InDelta(t, 0.5, calculateProfitFactor([]float64{5, -10}), 1e-9)
}

func TestCalculateVaR(t *testing.T) {
	returns := []float64{0.05, -0.02, 0.01, -0.08, 0.03, 0.0, -0.01, 0.02, 0.04, -0.03}
	assert.Equal(t, -0.08, calculateVaR(returns, 0.95))
	assert.Equal(t, -0.08, calculateVaR(returns, 0.99))
	assert.Equal(t, -0.01, calculateVaR(returns, 0.7))
	assert.Equal(t, 0.0, calculateVaR(nil, 0.95))
}

func TestHashParametersIsStable(t *testing.T) {
	a := HashParameters(map[string]any{"period": 20.0, "deviation": 2.0})
	b := HashParameters(map[string]any{"deviation": 2.0, "period": 20.0})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, HashParameters(map[string]any{"period": 21.0, "deviation": 2.0}))
}
