package strategy

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/indicator"
)

// RSIStrategy buys oversold and sells overbought readings of the relative strength index.
func RSIStrategy() Definition {
	return Definition{
		ID:          KindRSI,
		Name:        "RSI Overbought/Oversold",
		Description: "Uses the Relative Strength Index to identify potential reversal points when a security becomes overbought or oversold.",
		RiskLevel:   RiskMedium,
		Parameters: []ParameterSpec{
			numberParam("rsi-period", "RSI Period", "The number of periods to calculate RSI", 14, 2, 30, 1),
			numberParam("oversold-threshold", "Oversold Threshold", "The RSI value below which a security is considered oversold", 30, 10, 40, 1),
			numberParam("overbought-threshold", "Overbought Threshold", "The RSI value above which a security is considered overbought", 70, 60, 90, 1),
		},
		generate: generateRSI,
		constraint: func(p Parameters) error {
			if p.Float("oversold-threshold") >= p.Float("overbought-threshold") {
				return fmt.Errorf("oversold-threshold must be below overbought-threshold")
			}
			return nil
		},
	}
}

func generateRSI(prices []float64, _ []string, params Parameters) Result {
	period := params.Int("rsi-period")
	oversold := params.Float("oversold-threshold")
	overbought := params.Float("overbought-threshold")

	signals := holdSignals(len(prices))
	rsi := indicator.RSI(prices, period)
	position := PositionNone

	// rsi[j] describes bar j+period.
	for j, value := range rsi {
		b := j + period
		switch {
		case value < oversold && position != PositionLong:
			signals[b] = SignalBuy
			position = PositionLong
		case value > overbought && position != PositionShort:
			signals[b] = SignalSell
			position = PositionShort
		}
	}

	return Result{
		Signals: signals,
		Indicators: Snapshot{
			Series: map[string][]float64{"rsi": rsi},
			Levels: map[string]float64{"oversold": oversold, "overbought": overbought},
		},
		Fallback: rsi == nil,
	}
}
