package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMonteCarloDeterministic(t *testing.T) {
	curve := curveOf(1000, 1010, 995, 1020, 1030, 1012, 1045)
	cfg := MonteCarloConfig{Iterations: 500, Seed: 42, InitialCapital: 1000}

	first, err := RunMonteCarlo(context.Background(), curve, cfg)
	require.NoError(t, err)
	second, err := RunMonteCarlo(context.Background(), curve, cfg)
	require.NoError(t, err)

	assert.Equal(t, 500, first.Iterations)
	assert.Equal(t, 6, first.Horizon)
	assert.Len(t, first.Distribution, 500)
	assert.Equal(t, first.Distribution, second.Distribution)
	assert.GreaterOrEqual(t, first.ProbabilityOfProfit, 0.0)
	assert.LessOrEqual(t, first.ProbabilityOfProfit, 1.0)
	assert.LessOrEqual(t, first.VaR99, first.VaR95)
	assert.LessOrEqual(t, first.VaR95, first.MedianReturn)
	assert.Contains(t, first.ConfidenceIntervals, "95%")
}

func TestRunMonteCarloFlatCurve(t *testing.T) {
	result, err := RunMonteCarlo(context.Background(), curveOf(100, 100, 100), MonteCarloConfig{Iterations: 50, Seed: 1})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, result.MeanReturn, 1e-9)
	assert.InDelta(t, 0.0, result.StdReturn, 1e-9)
	assert.Equal(t, 0.0, result.ProbabilityOfProfit)
	assert.Equal(t, 0.0, result.ProbabilityOfRuin)
}

func TestRunMonteCarloRisingCurveAlwaysProfits(t *testing.T) {
	result, err := RunMonteCarlo(context.Background(), curveOf(100, 101, 103, 106), MonteCarloConfig{Iterations: 200, Seed: 9})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.ProbabilityOfProfit)
	assert.Greater(t, result.VaR99, 0.0)
}

func TestRunMonteCarloNeedsReturns(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), curveOf(100), MonteCarloConfig{})
	assert.Error(t, err)
}

func TestRunMonteCarloCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunMonteCarlo(ctx, curveOf(100, 101), MonteCarloConfig{Iterations: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMonteCarloRuinCountsIntraPathTroughs(t *testing.T) {
	// Returns are -60% and +150%. Every path that starts with the loss touches 40% of capital,
	// but only the loss-loss path ends below half.
	result, err := RunMonteCarlo(context.Background(), curveOf(100, 40, 100), MonteCarloConfig{Iterations: 4000, Seed: 3})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result.ProbabilityOfRuin, 0.05)
}
