package backtest

import (
	"fmt"
	"math"

	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/strategy"
)

// SimulationConfig holds the execution parameters of a simulation
type SimulationConfig struct {
	InitialCapital float64
	Commission     float64
}

// Step applies one bar's signal to the account. It returns the trade executed, or nil when the signal was a no-op.
//
// BUY from a non-long account spends as many whole shares as cash allows after the flat commission.
// SELL closes the whole position; its P&L is measured against the last buy price.
func Step(acc Account, bar models.PricePoint, signal strategy.Signal, commission float64) (Account, *models.Trade) {
	price := bar.Price

	switch signal {
	case strategy.SignalBuy:
		if acc.State == StateLong || acc.Cash <= price+commission {
			return acc, nil
		}
		qty := int64(math.Floor((acc.Cash - commission) / price))
		if qty <= 0 {
			return acc, nil
		}
		value := float64(qty) * price
		acc.Cash -= value + commission
		acc.Shares += qty
		acc.LastBuyPrice = price
		acc.State = StateLong
		return acc, &models.Trade{
			Date:     bar.Date,
			Type:     models.TradeTypeBuy,
			Price:    price,
			Quantity: qty,
			Value:    value,
		}

	case strategy.SignalSell:
		if acc.Shares <= 0 || acc.Cash+float64(acc.Shares)*price < commission {
			return acc, nil
		}
		qty := acc.Shares
		value := float64(qty) * price
		pnl := value - float64(qty)*acc.LastBuyPrice
		acc.Cash += value - commission
		acc.Shares = 0
		acc.State = StateFlat
		return acc, &models.Trade{
			Date:     bar.Date,
			Type:     models.TradeTypeSell,
			Price:    price,
			Quantity: qty,
			Value:    value,
			PnL:      &pnl,
		}
	}

	return acc, nil
}

// Simulate folds Step over the bars and records an equity point after each one
func Simulate(bars []models.PricePoint, signals []strategy.Signal, cfg SimulationConfig) (*SimulationState, error) {
	if len(signals) != len(bars) {
		return nil, fmt.Errorf("%w: %d signals for %d bars", models.ErrSignalMisaligned, len(signals), len(bars))
	}

	state := NewSimulationState(cfg.InitialCapital, len(bars))
	for i, bar := range bars {
		var trade *models.Trade
		state.Account, trade = Step(state.Account, bar, signals[i], cfg.Commission)
		if trade != nil {
			state.Trades = append(state.Trades, *trade)
		}
		state.EquityCurve = append(state.EquityCurve, models.EquityPoint{
			Date:  bar.Date,
			Value: state.Account.Value(bar.Price),
		})
	}
	return state, nil
}
