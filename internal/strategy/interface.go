// Package strategy holds the signal generators and the registry that dispatches to them by strategy id.
package strategy

// Signal is a per-bar trading instruction
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Position is the direction a generator currently considers itself in. It only gates repeated signals.
type Position string

const (
	PositionNone  Position = "NONE"
	PositionLong  Position = "LONG"
	PositionShort Position = "SHORT"
)

// GenerateFunc turns a price series into one signal per bar. Parameters are already resolved.
type GenerateFunc func(prices []float64, dates []string, params Parameters) Result

// Snapshot carries the indicator series and scalar levels a generator used
type Snapshot struct {
	Series map[string][]float64 `json:"series,omitempty"`
	Levels map[string]float64   `json:"levels,omitempty"`
}

// Result is the output of a signal generator. Signals has exactly one entry per input bar.
type Result struct {
	Signals    []Signal `json:"signals"`
	Indicators Snapshot `json:"indicators"`
	Fallback   bool     `json:"fallback"`
}

// Count returns how many times the given signal occurs
func (r Result) Count(signal Signal) int {
	count := 0
	for _, s := range r.Signals {
		if s == signal {
			count++
		}
	}
	return count
}

// Metadata describes a strategy for listings and reports
type Metadata struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	RiskLevel   RiskLevel       `json:"risk_level"`
	Parameters  []ParameterSpec `json:"parameters"`
}
