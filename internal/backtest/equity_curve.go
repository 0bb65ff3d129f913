package backtest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/models"
)

// EquityCurve represents a time-series of equity points
type EquityCurve []models.EquityPoint

// GetReturns calculates bar-to-bar returns from equity curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		curr := e[i].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

// GetVolatility calculates population standard deviation of returns
func (e EquityCurve) GetVolatility() float64 {
	return indicator.StdDev(e.GetReturns())
}

// GetDownsideDeviation calculates the root mean square of negative returns
func (e EquityCurve) GetDownsideDeviation() float64 {
	return downsideDeviation(e.GetReturns())
}

// MaxDrawdown returns the largest peak-to-trough drop in percent, with the peak seeded at initial
func (e EquityCurve) MaxDrawdown(initial float64) float64 {
	maxDD := 0.0
	peak := initial
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - p.Value) / peak * 100
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

// Drawdowns returns the percent drawdown at each point
func (e EquityCurve) Drawdowns(initial float64) []float64 {
	out := make([]float64, len(e))
	peak := initial
	for i, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 && p.Value < peak {
			out[i] = (peak - p.Value) / peak * 100
		}
	}
	return out
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV(initial float64) string {
	var buf bytes.Buffer
	buf.WriteString("date,value,drawdown\n")
	drawdowns := e.Drawdowns(initial)
	for i, point := range e {
		buf.WriteString(point.Date)
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(drawdowns[i]))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports equity curve to JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func downsideDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	count := 0
	for _, v := range values {
		if v < 0 {
			sum += v * v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}
