package models

import (
	"time"

	"github.com/google/uuid"
)

// BacktestResult is the outcome of one simulation run. Percentages are expressed in percent units.
type BacktestResult struct {
	RunID             uuid.UUID      `json:"run_id"`
	Symbol            string         `json:"symbol"`
	StrategyID        string         `json:"strategy_id"`
	Parameters        map[string]any `json:"parameters"`
	StartDate         string         `json:"start_date"`
	EndDate           string         `json:"end_date"`
	InitialInvestment float64        `json:"initial_investment"`
	FinalValue        float64        `json:"final_value"`
	TotalReturn       float64        `json:"total_return"`
	AnnualizedReturn  float64        `json:"annualized_return"`
	MaxDrawdown       float64        `json:"max_drawdown"`
	SharpeRatio       float64        `json:"sharpe_ratio"`
	SortinoRatio      float64        `json:"sortino_ratio"`
	WinRate           float64        `json:"win_rate"`
	ProfitFactor      float64        `json:"profit_factor"`
	Trades            []Trade        `json:"trades"`
	EquityCurve       []EquityPoint  `json:"equity_curve"`
	SyntheticData     bool           `json:"synthetic_data"`
	FallbackSignals   bool           `json:"fallback_signals"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ClosedTrades returns the SELL trades that carry a realised P&L
func (r *BacktestResult) ClosedTrades() []Trade {
	closed := make([]Trade, 0, len(r.Trades)/2)
	for _, trade := range r.Trades {
		if trade.Type == TradeTypeSell && trade.PnL != nil {
			closed = append(closed, trade)
		}
	}
	return closed
}
