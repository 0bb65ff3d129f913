package strategy

import "math"

// holdSignals returns n HOLD signals
func holdSignals(n int) []Signal {
	signals := make([]Signal, n)
	for i := range signals {
		signals[i] = SignalHold
	}
	return signals
}

// crossedAbove reports whether a moved from at or below b to strictly above it
func crossedAbove(prevA, prevB, a, b float64) bool {
	return prevA <= prevB && a > b
}

// crossedBelow reports whether a moved from at or above b to strictly below it
func crossedBelow(prevA, prevB, a, b float64) bool {
	return prevA >= prevB && a < b
}

// finite replaces NaN and infinities with fallback
func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
