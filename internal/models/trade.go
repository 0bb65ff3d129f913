package models

// TradeType is the side of a simulated trade
type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// Trade is an executed simulated order. PnL is set on SELL trades only.
type Trade struct {
	Date     string    `json:"date"`
	Type     TradeType `json:"type"`
	Price    float64   `json:"price"`
	Quantity int64     `json:"quantity"`
	Value    float64   `json:"value"`
	PnL      *float64  `json:"pnl,omitempty"`
}

// EquityPoint is the portfolio value at one bar
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}
