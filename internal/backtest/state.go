package backtest

import (
	"github.com/yourusername/tradesim/internal/models"
)

// PositionState is the simulator's holding state
type PositionState string

const (
	StateFlat PositionState = "FLAT"
	StateLong PositionState = "LONG"
)

// Account is the simulator's running book: cash, whole shares and the price of the last fill
type Account struct {
	Cash         float64
	Shares       int64
	LastBuyPrice float64
	State        PositionState
}

// NewAccount opens a flat account holding initialCapital in cash
func NewAccount(initialCapital float64) Account {
	return Account{Cash: initialCapital, State: StateFlat}
}

// Value marks the account to price
func (a Account) Value(price float64) float64 {
	return a.Cash + float64(a.Shares)*price
}

// SimulationState is the outcome of a simulation fold
type SimulationState struct {
	InitialCapital float64
	Account        Account
	Trades         []models.Trade
	EquityCurve    EquityCurve
}

// NewSimulationState initializes state for a run
func NewSimulationState(initialCapital float64, bars int) *SimulationState {
	return &SimulationState{
		InitialCapital: initialCapital,
		Account:        NewAccount(initialCapital),
		Trades:         []models.Trade{},
		EquityCurve:    make(EquityCurve, 0, bars),
	}
}

// FinalValue is the last equity point, or the initial capital for an empty run
func (s *SimulationState) FinalValue() float64 {
	if len(s.EquityCurve) == 0 {
		return s.InitialCapital
	}
	return s.EquityCurve[len(s.EquityCurve)-1].Value
}

// GetCurrentDrawdown calculates the fractional drop of the last point from the running peak
func (s *SimulationState) GetCurrentDrawdown() float64 {
	peak := s.InitialCapital
	for _, p := range s.EquityCurve {
		if p.Value > peak {
			peak = p.Value
		}
	}
	if peak <= 0 {
		return 0
	}
	drawdown := (peak - s.FinalValue()) / peak
	if drawdown < 0 {
		return 0
	}
	return drawdown
}
