package prediction

import (
	"math"

	"github.com/yourusername/tradesim/internal/models"
)

const (
	voteWeight        = 0.25
	decisionThreshold = 0.3
	priorReturnBoost  = 1.2
	// priorReturnFloor is the total return, in percent, above which a prior backtest boosts the winning side
	priorReturnFloor  = 5.0
	neutralConfidence = 50
	maxConfidence     = 95
)

// NamedVote is a vote tagged with the sub-model that cast it
type NamedVote struct {
	Model string
	Vote
}

// Outcome is the combined ensemble decision
type Outcome struct {
	Direction  models.Direction
	UpScore    float64
	DownScore  float64
	Score      float64
	Confidence int
	Boosted    bool
}

// Votes runs every sub-model over one series
func Votes(prices, volumes []float64) []NamedVote {
	return []NamedVote{
		{Model: "macd", Vote: MACDVote(prices)},
		{Model: "rsi", Vote: RSIVote(prices)},
		{Model: "bollinger", Vote: BollingerVote(prices)},
		{Model: "volume", Vote: VolumeVote(prices, volumes)},
	}
}

// Combine weights the votes equally. A side wins only if it beats the other side and clears the threshold;
// a prior backtest with a strong return boosts the winner before the confidence is derived.
func Combine(votes []NamedVote, prior *models.BacktestResult) Outcome {
	var out Outcome
	for _, v := range votes {
		switch v.Direction {
		case models.DirectionUp:
			out.UpScore += v.Strength * voteWeight
		case models.DirectionDown:
			out.DownScore += v.Strength * voteWeight
		}
	}

	switch {
	case out.UpScore > out.DownScore && out.UpScore > decisionThreshold:
		out.Direction = models.DirectionUp
		out.Score = out.UpScore
	case out.DownScore > out.UpScore && out.DownScore > decisionThreshold:
		out.Direction = models.DirectionDown
		out.Score = out.DownScore
	default:
		out.Direction = models.DirectionNeutral
		out.Confidence = neutralConfidence
		return out
	}

	if prior != nil && prior.TotalReturn > priorReturnFloor {
		out.Score *= priorReturnBoost
		out.Boosted = true
	}
	out.Confidence = int(math.Floor(math.Min(50+out.Score*100, maxConfidence)))
	return out
}

// directionBias is the fixed price tilt applied for a directional call
func directionBias(d models.Direction) float64 {
	switch d {
	case models.DirectionUp:
		return 0.05
	case models.DirectionDown:
		return -0.05
	}
	return 0
}

func voteSummary(votes []NamedVote) map[string]string {
	out := make(map[string]string, len(votes))
	for _, v := range votes {
		out[v.Model] = string(v.Direction)
	}
	return out
}
