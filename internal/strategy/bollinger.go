package strategy

import (
	"math"

	"github.com/yourusername/tradesim/internal/indicator"
)

// bandExitFraction is the share of the band half-width around the middle band that closes a position
const bandExitFraction = 0.1

// BollingerBands trades breakouts through the bands and exits when price returns to the middle band.
func BollingerBands() Definition {
	return Definition{
		ID:          KindBollingerBands,
		Name:        "Bollinger Bands Breakout",
		Description: "Generates signals when price breaks out of the Bollinger Bands, indicating potential trend continuation or reversal.",
		RiskLevel:   RiskHigh,
		Parameters: []ParameterSpec{
			numberParam("period", "Moving Average Period", "The period for the middle band (moving average)", 20, 5, 50, 1),
			numberParam("deviation", "Standard Deviation Multiplier", "The number of standard deviations for the upper and lower bands", 2, 1, 4, 0.1),
		},
		generate: generateBollinger,
	}
}

func generateBollinger(prices []float64, _ []string, params Parameters) Result {
	period := params.Int("period")
	deviation := params.Float("deviation")

	signals := holdSignals(len(prices))
	bands := indicator.Bollinger(prices, period, deviation)
	position := PositionNone

	for i := 0; i < bands.Len(); i++ {
		b := i + period - 1
		price := prices[b]
		upper, middle, lower := bands.Upper[i], bands.Middle[i], bands.Lower[i]

		switch {
		case price > upper && position != PositionLong:
			signals[b] = SignalBuy
			position = PositionLong
		case price < lower && position != PositionShort:
			signals[b] = SignalSell
			position = PositionShort
		case position != PositionNone && math.Abs(price-middle) < (upper-middle)*bandExitFraction:
			if position == PositionLong {
				signals[b] = SignalSell
			} else {
				signals[b] = SignalBuy
			}
			position = PositionNone
		}
	}

	return Result{
		Signals: signals,
		Indicators: Snapshot{
			Series: map[string][]float64{"upper": bands.Upper, "middle": bands.Middle, "lower": bands.Lower},
			Levels: map[string]float64{"deviation": deviation},
		},
		Fallback: bands.Len() == 0,
	}
}
