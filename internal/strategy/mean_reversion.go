package strategy

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/indicator"
)

// MeanReversion fades large z-score deviations from a trailing mean and flattens near the mean.
func MeanReversion() Definition {
	return Definition{
		ID:          KindMeanReversion,
		Name:        "Mean Reversion",
		Description: "Assumes prices revert to their mean. Buys when prices are significantly below their average and sells when they are above.",
		RiskLevel:   RiskMedium,
		Parameters: []ParameterSpec{
			numberParam("lookback-period", "Lookback Period", "The number of periods used for the trailing mean and deviation", 50, 10, 200, 1),
			numberParam("entry-threshold", "Entry Threshold", "Standard deviations from the mean required to enter a position", 2, 0.5, 4, 0.1),
			numberParam("exit-threshold", "Exit Threshold", "Standard deviations from the mean at which a position is closed", 0.5, 0.1, 2, 0.1),
		},
		generate: generateMeanReversion,
		constraint: func(p Parameters) error {
			if p.Float("exit-threshold") >= p.Float("entry-threshold") {
				return fmt.Errorf("exit-threshold must be narrower than entry-threshold")
			}
			return nil
		},
	}
}

func generateMeanReversion(prices []float64, _ []string, params Parameters) Result {
	lookback := params.Int("lookback-period")
	entry := params.Float("entry-threshold")
	exit := params.Float("exit-threshold")

	n := len(prices)
	signals := holdSignals(n)
	size := 0
	if n > lookback {
		size = n - lookback
	}
	means := make([]float64, 0, size)
	stdDevs := make([]float64, 0, size)
	zScores := make([]float64, 0, size)
	position := PositionNone

	for b := lookback; b < n; b++ {
		window := prices[b-lookback : b]
		mean := indicator.Mean(window)
		std := indicator.StdDev(window)
		z := 0.0
		if std > 0 {
			z = finite((prices[b]-mean)/std, 0)
		}
		means = append(means, mean)
		stdDevs = append(stdDevs, std)
		zScores = append(zScores, z)

		switch {
		case z < -entry && position != PositionLong:
			signals[b] = SignalBuy
			position = PositionLong
		case z > entry && position != PositionShort:
			signals[b] = SignalSell
			position = PositionShort
		case position == PositionLong && z > -exit:
			signals[b] = SignalSell
			position = PositionNone
		case position == PositionShort && z < exit:
			signals[b] = SignalBuy
			position = PositionNone
		}
	}

	return Result{
		Signals: signals,
		Indicators: Snapshot{
			Series: map[string][]float64{"mean": means, "std-dev": stdDevs, "z-score": zScores},
			Levels: map[string]float64{"entry-threshold": entry, "exit-threshold": exit},
		},
		Fallback: n <= lookback,
	}
}
