package models

// Direction is the predicted price direction
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// Prediction is a heuristic price forecast for one instrument
type Prediction struct {
	StockSymbol        string    `json:"stock_symbol"`
	Date               string    `json:"date"`
	TargetDate         string    `json:"target_date"`
	Days               int       `json:"days"`
	PredictedPrice     float64   `json:"predicted_price"`
	PredictedDirection Direction `json:"predicted_direction"`
	Confidence         int       `json:"confidence"`
	Degraded           bool      `json:"degraded"`
}

// MeetsThreshold checks if the confidence meets the given threshold
func (p *Prediction) MeetsThreshold(threshold int) bool {
	return p.Confidence >= threshold
}
