package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/metrics"
)

// MonteCarloConfig configures monte carlo simulation
type MonteCarloConfig struct {
	StrategyID     string
	Iterations     int
	Seed           int64
	InitialCapital float64
	RuinThreshold  float64 // a path whose lowest value falls to this fraction of initial capital is ruined, default 0.5
}

// MonteCarloResult summarises the distribution of bootstrapped final values. Returns are in percent.
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	Horizon             int                `json:"horizon"`
	MeanReturn          float64            `json:"mean_return"`
	MedianReturn        float64            `json:"median_return"`
	StdReturn           float64            `json:"std_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfRuin   float64            `json:"probability_of_ruin"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	Distribution        []float64          `json:"distribution"`
}

// RunMonteCarlo resamples the curve's bar returns with replacement and compounds each path from the initial capital
func RunMonteCarlo(ctx context.Context, curve EquityCurve, cfg MonteCarloConfig) (MonteCarloResult, error) {
	returns := curve.GetReturns()
	if len(returns) == 0 {
		return MonteCarloResult{}, fmt.Errorf("monte carlo needs at least two equity points, got %d", len(curve))
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	if cfg.InitialCapital <= 0 {
		cfg.InitialCapital = curve[0].Value
	}
	if cfg.RuinThreshold <= 0 {
		cfg.RuinThreshold = 0.5
	}

	started := time.Now()
	rng := datasource.NewRand(cfg.Seed)
	distribution := make([]float64, cfg.Iterations)
	troughs := make([]float64, cfg.Iterations)

	for i := 0; i < cfg.Iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				metrics.RecordBacktestRun(cfg.StrategyID, "monte_carlo", "cancelled", time.Since(started).Seconds())
				return MonteCarloResult{}, err
			}
		}
		value := cfg.InitialCapital
		trough := value
		for range returns {
			value *= 1 + returns[rng.Intn(len(returns))]
			trough = math.Min(trough, value)
		}
		distribution[i] = value
		troughs[i] = trough
	}

	initial := cfg.InitialCapital
	toReturn := func(v float64) float64 { return (v/initial - 1) * 100 }

	result := MonteCarloResult{
		Iterations:          cfg.Iterations,
		Horizon:             len(returns),
		MeanReturn:          toReturn(indicator.Mean(distribution)),
		MedianReturn:        toReturn(percentile(distribution, 0.5)),
		StdReturn:           indicator.StdDev(distribution) / initial * 100,
		VaR95:               toReturn(percentile(distribution, 0.05)),
		VaR99:               toReturn(percentile(distribution, 0.01)),
		ProbabilityOfProfit: probabilityAbove(distribution, initial),
		ProbabilityOfRuin:   probabilityAtOrBelow(troughs, initial*cfg.RuinThreshold),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		Distribution:        distribution,
	}
	metrics.RecordBacktestRun(cfg.StrategyID, "monte_carlo", "success", time.Since(started).Seconds())
	return result, nil
}

// CalculateConfidenceIntervals computes the width of the central interval at each level
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[formatPercent(level)] = high - low
	}
	return results
}

// ToJSON exports the result to JSON
func (m MonteCarloResult) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func probabilityAtOrBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
