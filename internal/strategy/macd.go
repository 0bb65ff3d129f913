package strategy

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/indicator"
)

// MACDCrossover trades crossings of the MACD line through its signal line.
func MACDCrossover() Definition {
	return Definition{
		ID:          KindMACD,
		Name:        "MACD Crossover",
		Description: "A momentum strategy that uses the Moving Average Convergence Divergence indicator to identify potential trend changes.",
		RiskLevel:   RiskMedium,
		Parameters: []ParameterSpec{
			numberParam("fast-period", "Fast EMA Period", "The period for the fast exponential moving average", 12, 5, 30, 1),
			numberParam("slow-period", "Slow EMA Period", "The period for the slow exponential moving average", 26, 10, 50, 1),
			numberParam("signal-period", "Signal Period", "The period for the signal line", 9, 3, 20, 1),
		},
		generate: generateMACD,
		constraint: func(p Parameters) error {
			if p.Int("fast-period") >= p.Int("slow-period") {
				return fmt.Errorf("fast-period (%d) must be less than slow-period (%d)", p.Int("fast-period"), p.Int("slow-period"))
			}
			return nil
		},
	}
}

func generateMACD(prices []float64, _ []string, params Parameters) Result {
	fast := params.Int("fast-period")
	slow := params.Int("slow-period")
	signalPeriod := params.Int("signal-period")

	n := len(prices)
	signals := holdSignals(n)
	macd := indicator.MACD(prices, fast, slow, signalPeriod)

	// The signal line is not meaningful until slow and signal EMAs have both warmed up.
	start := slow + signalPeriod - 1
	last := SignalHold
	for b := start; b < n; b++ {
		prevLine, prevSignal := macd.MACD[b-1], macd.Signal[b-1]
		line, signal := macd.MACD[b], macd.Signal[b]

		switch {
		case crossedAbove(prevLine, prevSignal, line, signal) && last != SignalBuy:
			signals[b] = SignalBuy
			last = SignalBuy
		case crossedBelow(prevLine, prevSignal, line, signal) && last != SignalSell:
			signals[b] = SignalSell
			last = SignalSell
		}
	}

	return Result{
		Signals: signals,
		Indicators: Snapshot{
			Series: map[string][]float64{"macd": macd.MACD, "signal": macd.Signal, "histogram": macd.Histogram},
		},
		Fallback: n <= start,
	}
}
