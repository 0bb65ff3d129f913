package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/models"
)

const tradingDaysPerYear = 252

// Metrics represents backtest performance metrics. Returns, drawdowns and win rate are in percent.
type Metrics struct {
	InitialCapital   float64 `json:"initial_capital"`
	FinalValue       float64 `json:"final_value"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	CurrentDrawdown  float64 `json:"current_drawdown"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	Volatility       float64 `json:"volatility"`
	ValueAtRisk95    float64 `json:"var_95"`
	ValueAtRisk99    float64 `json:"var_99"`
	TotalTrades      int     `json:"total_trades"`
	ClosedTrades     int     `json:"closed_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	AverageWin       float64 `json:"average_win"`
	AverageLoss      float64 `json:"average_loss"`
	Expectancy       float64 `json:"expectancy"`
	LargestWin       float64 `json:"largest_win"`
	LargestLoss      float64 `json:"largest_loss"`
	Days             int     `json:"days"`
}

// CalculateMetrics derives performance metrics from a finished simulation.
// days annualises the total return; non-positive days give an annualised return of 0.
func CalculateMetrics(state *SimulationState, days int, riskFreeRate float64) Metrics {
	if state == nil {
		return Metrics{}
	}

	metrics := Metrics{
		InitialCapital: state.InitialCapital,
		FinalValue:     state.FinalValue(),
		Days:           days,
	}
	if state.InitialCapital > 0 {
		metrics.TotalReturn = (metrics.FinalValue/state.InitialCapital - 1) * 100
	}
	if days > 0 {
		metrics.AnnualizedReturn = metrics.TotalReturn * 365 / float64(days)
	}

	curve := state.EquityCurve
	metrics.MaxDrawdown = curve.MaxDrawdown(state.InitialCapital)
	metrics.CurrentDrawdown = state.GetCurrentDrawdown() * 100
	returns := curve.GetReturns()
	volatility := curve.GetVolatility()
	metrics.SharpeRatio = riskAdjustedReturn(returns, volatility, riskFreeRate)
	metrics.SortinoRatio = riskAdjustedReturn(returns, curve.GetDownsideDeviation(), riskFreeRate)
	metrics.Volatility = volatility * math.Sqrt(tradingDaysPerYear) * 100
	if metrics.MaxDrawdown > 0 {
		metrics.CalmarRatio = metrics.AnnualizedReturn / metrics.MaxDrawdown
	}
	metrics.ValueAtRisk95 = calculateVaR(returns, 0.95) * 100
	metrics.ValueAtRisk99 = calculateVaR(returns, 0.99) * 100

	closed := closedPnL(state.Trades)
	metrics.TotalTrades = len(state.Trades)
	metrics.ClosedTrades = len(closed)
	metrics.WinningTrades, metrics.LosingTrades, metrics.AverageWin, metrics.AverageLoss, metrics.LargestWin, metrics.LargestLoss = calculateTradeStats(closed)
	metrics.WinRate = calculateWinRate(metrics.WinningTrades, metrics.ClosedTrades)
	metrics.ProfitFactor = calculateProfitFactor(closed)
	metrics.Expectancy = indicator.Mean(closed)

	return metrics
}

// Apply copies the headline numbers onto a result
func (m Metrics) Apply(result *models.BacktestResult) {
	result.InitialInvestment = m.InitialCapital
	result.FinalValue = m.FinalValue
	result.TotalReturn = m.TotalReturn
	result.AnnualizedReturn = m.AnnualizedReturn
	result.MaxDrawdown = m.MaxDrawdown
	result.SharpeRatio = m.SharpeRatio
	result.SortinoRatio = m.SortinoRatio
	result.WinRate = m.WinRate
	result.ProfitFactor = m.ProfitFactor
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// riskAdjustedReturn annualises the mean excess return over deviation. Zero deviation gives 0.
func riskAdjustedReturn(returns []float64, deviation, riskFreeRate float64) float64 {
	if len(returns) == 0 || deviation == 0 {
		return 0
	}
	return (indicator.Mean(returns) - riskFreeRate/tradingDaysPerYear) / deviation * math.Sqrt(tradingDaysPerYear)
}

func closedPnL(trades []models.Trade) []float64 {
	out := make([]float64, 0, len(trades)/2)
	for _, trade := range trades {
		if trade.Type == models.TradeTypeSell && trade.PnL != nil {
			out = append(out, *trade.PnL)
		}
	}
	return out
}

func calculateProfitFactor(pnls []float64) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, pl := range pnls {
		if pl > 0 {
			grossProfit += pl
		} else {
			grossLoss += math.Abs(pl)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

func calculateVaR(returns []float64, level float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64{}, returns...)
	sort.Float64s(sorted)
	index := int(math.Floor((1.0 - level) * float64(len(sorted))))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func calculateTradeStats(pnls []float64) (int, int, float64, float64, float64, float64) {
	wins := 0
	losses := 0
	winSum := 0.0
	lossSum := 0.0
	largestWin := 0.0
	largestLoss := 0.0
	for _, pl := range pnls {
		if pl > 0 {
			wins++
			winSum += pl
			if pl > largestWin {
				largestWin = pl
			}
		} else if pl < 0 {
			losses++
			lossSum += pl
			if pl < largestLoss {
				largestLoss = pl
			}
		}
	}

	avgWin := 0.0
	avgLoss := 0.0
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}
	return wins, losses, avgWin, avgLoss, largestWin, largestLoss
}

func calculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// HashParameters creates a stable hash for parameter maps
func HashParameters(params map[string]any) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
