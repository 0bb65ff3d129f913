package strategy

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/indicator"
)

// crossoverWarmup is the number of bars beyond the long period required before crossovers are evaluated
const crossoverWarmup = 10

// MovingAverageCrossover buys when the short SMA crosses above the long SMA and sells on the reverse cross.
func MovingAverageCrossover() Definition {
	return Definition{
		ID:          KindMovingAverageCrossover,
		Name:        "Moving Average Crossover",
		Description: "Buys when a shorter-term moving average crosses above a longer-term moving average and sells when it crosses back below.",
		RiskLevel:   RiskMedium,
		Parameters: []ParameterSpec{
			numberParam("short-ma", "Short Moving Average Period", "The period for the short-term moving average", 10, 2, 50, 1),
			numberParam("long-ma", "Long Moving Average Period", "The period for the long-term moving average", 50, 3, 200, 1),
		},
		generate: generateMovingAverageCrossover,
		constraint: func(p Parameters) error {
			if p.Int("short-ma") >= p.Int("long-ma") {
				return fmt.Errorf("short-ma (%d) must be less than long-ma (%d)", p.Int("short-ma"), p.Int("long-ma"))
			}
			return nil
		},
	}
}

func generateMovingAverageCrossover(prices []float64, _ []string, params Parameters) Result {
	short := params.Int("short-ma")
	long := params.Int("long-ma")
	n := len(prices)
	signals := holdSignals(n)

	// Too little history: buy the first bar and sell the last.
	if n < long+crossoverWarmup {
		if n > 0 {
			signals[n-1] = SignalSell
			signals[0] = SignalBuy
		}
		return Result{
			Signals:    signals,
			Indicators: Snapshot{Levels: map[string]float64{"short-ma": float64(short), "long-ma": float64(long)}},
			Fallback:   true,
		}
	}

	shortMA := indicator.SMA(prices, short)
	longMA := indicator.SMA(prices, long)
	position := PositionNone

	// shortMA[b-short+1] and longMA[b-long+1] both describe bar b.
	for b := long; b < n; b++ {
		s, prevS := shortMA[b-short+1], shortMA[b-short]
		l, prevL := longMA[b-long+1], longMA[b-long]

		switch {
		case crossedAbove(prevS, prevL, s, l) && position != PositionLong:
			signals[b] = SignalBuy
			position = PositionLong
		case crossedBelow(prevS, prevL, s, l) && position == PositionLong:
			signals[b] = SignalSell
			position = PositionNone
		}
	}

	return Result{
		Signals: signals,
		Indicators: Snapshot{
			Series: map[string][]float64{"short-ma": shortMA, "long-ma": longMA},
			Levels: map[string]float64{"short-ma": float64(short), "long-ma": float64(long)},
		},
	}
}
