package backtest

import (
	"encoding/json"
	"math"

	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
)

// Recommendations
const (
	RecommendAccept = "ACCEPT"
	RecommendReview = "NEEDS_REVIEW"
	RecommendReject = "REJECT"
)

// AggregatedResult represents combined backtest outcomes
type AggregatedResult struct {
	StrategyID        string                 `json:"strategy_id"`
	Symbol            string                 `json:"symbol"`
	Replay            *models.BacktestResult `json:"replay"`
	MonteCarloResult  MonteCarloResult       `json:"monte_carlo_result"`
	WalkForwardResult WalkForwardResult      `json:"walk_forward_result"`
	CompositeScore    float64                `json:"composite_score"`
	Weights           AggregationWeights     `json:"weights"`
	Recommendation    string                 `json:"recommendation"`
	Features          map[string]float64     `json:"features"`
}

// AggregationWeights define weighting per method
type AggregationWeights struct {
	HistoricalReplay float64 `json:"historical_replay"`
	MonteCarlo       float64 `json:"monte_carlo"`
	WalkForward      float64 `json:"walk_forward"`
}

// DefaultAggregationWeights favours the replay and splits the rest evenly
func DefaultAggregationWeights() AggregationWeights {
	return AggregationWeights{HistoricalReplay: 0.5, MonteCarlo: 0.25, WalkForward: 0.25}
}

// AggregateResults aggregates results with weights
func AggregateResults(replay *models.BacktestResult, monteCarlo MonteCarloResult, walkForward WalkForwardResult, weights AggregationWeights) AggregatedResult {
	historicalScore := CalculateCompositeScore(replay)
	monteCarloScore := normalize(monteCarlo.MeanReturn, -50, 100)
	walkForwardScore := normalize(walkForward.AggregatedMetrics.TotalReturn, -50, 100)
	composite := historicalScore*weights.HistoricalReplay + monteCarloScore*weights.MonteCarlo + walkForwardScore*weights.WalkForward
	recommendation := GenerateRecommendation(composite, walkForward.ConsistencyScore, replay.TotalReturn, walkForward.AggregatedMetrics.TotalReturn)

	metrics.RecordCompositeScore(replay.StrategyID, composite)

	return AggregatedResult{
		StrategyID:        replay.StrategyID,
		Symbol:            replay.Symbol,
		Replay:            replay,
		MonteCarloResult:  monteCarlo,
		WalkForwardResult: walkForward,
		CompositeScore:    composite,
		Weights:           weights,
		Recommendation:    recommendation,
		Features:          extractFeatures(replay, monteCarlo, walkForward),
	}
}

// CalculateCompositeScore scores a replay between 0 and 1
func CalculateCompositeScore(result *models.BacktestResult) float64 {
	sharpeScore := normalize(result.SharpeRatio, -2, 3)
	roiScore := normalize(result.TotalReturn, -50, 100)
	profitFactorScore := normalize(result.ProfitFactor, 0, 3)
	drawdownPenalty := 1.0 - normalize(result.MaxDrawdown, 0, 50)
	winRateScore := normalize(result.WinRate, 0, 100)

	weighted := 0.0
	weighted += sharpeScore * 0.30
	weighted += roiScore * 0.20
	weighted += profitFactorScore * 0.20
	weighted += drawdownPenalty * 0.15
	weighted += winRateScore * 0.15
	return weighted
}

// GenerateRecommendation determines if strategy is acceptable
func GenerateRecommendation(score float64, consistency float64, historicalReturn float64, walkForwardReturn float64) string {
	if score > 0.7 && historicalReturn > 0 && walkForwardReturn > 0 && consistency > 0.6 {
		return RecommendAccept
	}
	if score < 0.4 || historicalReturn < 0 || walkForwardReturn < 0 || consistency < 0.4 {
		return RecommendReject
	}
	return RecommendReview
}

// ToJSON exports the aggregated result to JSON
func (a AggregatedResult) ToJSON() string {
	data, _ := json.Marshal(a)
	return string(data)
}

func extractFeatures(r *models.BacktestResult, mc MonteCarloResult, wf WalkForwardResult) map[string]float64 {
	return map[string]float64{
		"total_return":          r.TotalReturn,
		"sharpe_ratio":          r.SharpeRatio,
		"sortino_ratio":         r.SortinoRatio,
		"max_drawdown":          r.MaxDrawdown,
		"profit_factor":         r.ProfitFactor,
		"win_rate":              r.WinRate,
		"monte_carlo_var95":     mc.VaR95,
		"monte_carlo_var99":     mc.VaR99,
		"probability_of_profit": mc.ProbabilityOfProfit,
		"consistency_score":     wf.ConsistencyScore,
		"overfit_score":         wf.OverfitScore,
	}
}

func normalize(value, min, max float64) float64 {
	if max-min == 0 {
		return 0
	}
	v := (value - min) / (max - min)
	return math.Max(0, math.Min(1, v))
}
