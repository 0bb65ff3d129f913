package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/strategy"
)

// WalkForwardConfig configures rolling train/test evaluation over one history
type WalkForwardConfig struct {
	Windows        int
	TrainRatio     int // train window length in test windows, default 2
	MinTrades      int // windows whose test segment trades less are dropped
	InitialCapital float64
	Commission     float64
	RiskFreeRate   float64
}

// WalkForwardWindow represents one walk-forward window
type WalkForwardWindow struct {
	WindowID     int     `json:"window_id"`
	TrainStart   string  `json:"train_start"`
	TrainEnd     string  `json:"train_end"`
	TestStart    string  `json:"test_start"`
	TestEnd      string  `json:"test_end"`
	TrainMetrics Metrics `json:"train_metrics"`
	TestMetrics  Metrics `json:"test_metrics"`
}

// WalkForwardResult represents walk-forward evaluation result
type WalkForwardResult struct {
	Windows           []WalkForwardWindow `json:"windows"`
	AggregatedMetrics Metrics             `json:"aggregated_metrics"`
	ConsistencyScore  float64             `json:"consistency_score"`
	OverfitScore      float64             `json:"overfit_score"`
}

// RunWalkForward splits bars into Windows rolling windows of TrainRatio+1 equal segments, stepping one segment
// at a time. Signals are generated over the whole window so indicators warm up on the train bars; the train and
// test segments are then simulated separately from fresh capital.
func RunWalkForward(ctx context.Context, bars []models.PricePoint, def strategy.Definition, params strategy.Parameters, cfg WalkForwardConfig) (WalkForwardResult, error) {
	started := time.Now()
	result, err := runWalkForward(ctx, bars, def, params, cfg)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordBacktestRun(string(def.ID), "walk_forward", status, time.Since(started).Seconds())
	return result, err
}

func runWalkForward(ctx context.Context, bars []models.PricePoint, def strategy.Definition, params strategy.Parameters, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if cfg.Windows <= 0 {
		cfg.Windows = 4
	}
	if cfg.TrainRatio <= 0 {
		cfg.TrainRatio = 2
	}
	segment := len(bars) / (cfg.Windows + cfg.TrainRatio)
	if segment < 2 {
		return WalkForwardResult{}, fmt.Errorf("walk-forward needs at least %d bars for %d windows, got %d",
			2*(cfg.Windows+cfg.TrainRatio), cfg.Windows, len(bars))
	}
	trainBars := segment * cfg.TrainRatio
	sim := SimulationConfig{InitialCapital: cfg.InitialCapital, Commission: cfg.Commission}

	windows := []WalkForwardWindow{}
	for i := 0; i < cfg.Windows; i++ {
		if err := ctx.Err(); err != nil {
			return WalkForwardResult{}, err
		}
		trainStart := i * segment
		testStart := trainStart + trainBars
		testEnd := testStart + segment
		window := bars[trainStart:testEnd]

		prices, dates, _ := models.Series(window)
		generated, _, err := def.Generate(prices, dates, params)
		if err != nil {
			return WalkForwardResult{}, err
		}

		trainState, err := Simulate(window[:trainBars], generated.Signals[:trainBars], sim)
		if err != nil {
			return WalkForwardResult{}, err
		}
		testState, err := Simulate(window[trainBars:], generated.Signals[trainBars:], sim)
		if err != nil {
			return WalkForwardResult{}, err
		}
		if cfg.MinTrades > 0 && len(testState.Trades) < cfg.MinTrades {
			continue
		}

		windows = append(windows, WalkForwardWindow{
			WindowID:     i + 1,
			TrainStart:   window[0].Date,
			TrainEnd:     window[trainBars-1].Date,
			TestStart:    window[trainBars].Date,
			TestEnd:      window[len(window)-1].Date,
			TrainMetrics: CalculateMetrics(trainState, daysBetween(window[0].Date, window[trainBars-1].Date), cfg.RiskFreeRate),
			TestMetrics:  CalculateMetrics(testState, daysBetween(window[trainBars].Date, window[len(window)-1].Date), cfg.RiskFreeRate),
		})
	}

	return WalkForwardResult{
		Windows:           windows,
		AggregatedMetrics: aggregateWalkForward(windows),
		ConsistencyScore:  CalculateConsistency(windows),
		OverfitScore:      calculateOverfitScore(windows),
	}, nil
}

// CalculateConsistency calculates the share of windows with a profitable test segment
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	profitable := 0
	for _, w := range windows {
		if w.TestMetrics.TotalReturn > 0 {
			profitable++
		}
	}
	return float64(profitable) / float64(len(windows))
}

func calculateOverfitScore(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	trainReturn := 0.0
	testReturn := 0.0
	for _, w := range windows {
		trainReturn += w.TrainMetrics.TotalReturn
		testReturn += w.TestMetrics.TotalReturn
	}
	if trainReturn == 0 {
		return 0
	}
	return (trainReturn - testReturn) / trainReturn
}

func aggregateWalkForward(windows []WalkForwardWindow) Metrics {
	if len(windows) == 0 {
		return Metrics{}
	}
	agg := Metrics{}
	for _, w := range windows {
		agg.TotalReturn += w.TestMetrics.TotalReturn
		agg.SharpeRatio += w.TestMetrics.SharpeRatio
		agg.MaxDrawdown += w.TestMetrics.MaxDrawdown
		agg.TotalTrades += w.TestMetrics.TotalTrades
	}
	n := float64(len(windows))
	agg.TotalReturn /= n
	agg.SharpeRatio /= n
	agg.MaxDrawdown /= n
	return agg
}

// ToJSON exports the result to JSON
func (w WalkForwardResult) ToJSON() string {
	data, _ := json.Marshal(w)
	return string(data)
}

// RunWalkForward loads the stock's history once and evaluates strategyID over rolling windows
func (e *Engine) RunWalkForward(ctx context.Context, stock models.Stock, strategyID string, params strategy.Parameters, cfg BacktestConfig) (WalkForwardResult, error) {
	def, err := e.registry.Lookup(strategyID)
	if err != nil {
		return WalkForwardResult{}, err
	}
	resolved, err := def.Resolve(params)
	if err != nil {
		return WalkForwardResult{}, err
	}
	bars, _, err := e.LoadBars(ctx, stock, cfg)
	if err != nil {
		return WalkForwardResult{}, err
	}
	return RunWalkForward(ctx, bars, def, resolved, WalkForwardConfig{
		Windows:        e.options.WalkForwardWindows,
		InitialCapital: cfg.InitialCapital,
		Commission:     cfg.Commission,
		RiskFreeRate:   e.options.RiskFreeRate,
	})
}
