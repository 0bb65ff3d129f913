package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/tradesim/internal/config"
	"github.com/yourusername/tradesim/internal/models"
)

// Fallback modes for empty history
const (
	FallbackFail      = "fail"
	FallbackSynthetic = "synthetic"
)

// BacktestConfig is the per-run simulation setup
type BacktestConfig struct {
	InitialCapital float64
	StartDate      string
	EndDate        string
	Commission     float64 // flat fee per executed trade
	Days           int     // span used to annualise returns; 0 derives it from the dates
}

// EngineOptions are engine-wide settings shared by every run
type EngineOptions struct {
	FallbackMode         string
	MonteCarloIterations int
	WalkForwardWindows   int
	MaxConcurrency       int
	RiskFreeRate         float64
	OutputPath           string
	Seed                 int64
}

// FromConfig converts app config to the per-run defaults and engine options
func FromConfig(cfg *config.BacktestConfig) (BacktestConfig, EngineOptions, error) {
	if cfg == nil {
		return BacktestConfig{}, EngineOptions{}, fmt.Errorf("backtest config is required")
	}

	bt := BacktestConfig{
		InitialCapital: cfg.InitialCapital,
		StartDate:      cfg.StartDate,
		EndDate:        cfg.EndDate,
		Commission:     cfg.Commission,
	}
	opts := EngineOptions{
		FallbackMode:         cfg.FallbackMode,
		MonteCarloIterations: cfg.MonteCarloIterations,
		WalkForwardWindows:   cfg.WalkForwardWindows,
		MaxConcurrency:       cfg.MaxConcurrency,
		RiskFreeRate:         cfg.RiskFreeRate,
		OutputPath:           cfg.OutputPath,
		Seed:                 cfg.Seed,
	}

	return bt, opts.withDefaults(), bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	start, err := time.Parse(models.DateLayout, b.StartDate)
	if err != nil {
		return fmt.Errorf("%w: invalid start date %q", models.ErrInvalidConfig, b.StartDate)
	}
	end, err := time.Parse(models.DateLayout, b.EndDate)
	if err != nil {
		return fmt.Errorf("%w: invalid end date %q", models.ErrInvalidConfig, b.EndDate)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start date must be before end date", models.ErrInvalidConfig)
	}
	if b.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive", models.ErrInvalidConfig)
	}
	if b.Commission < 0 {
		return fmt.Errorf("%w: commission cannot be negative", models.ErrInvalidConfig)
	}
	if b.Days < 0 {
		return fmt.Errorf("%w: days cannot be negative", models.ErrInvalidConfig)
	}
	return nil
}

// Span returns Days, or the calendar days between the dates rounded up when Days is unset
func (b BacktestConfig) Span() int {
	if b.Days > 0 {
		return b.Days
	}
	return daysBetween(b.StartDate, b.EndDate)
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.FallbackMode == "" {
		o.FallbackMode = FallbackFail
	}
	if o.MonteCarloIterations <= 0 {
		o.MonteCarloIterations = 1000
	}
	if o.WalkForwardWindows <= 0 {
		o.WalkForwardWindows = 4
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 4
	}
	return o
}

func daysBetween(startDate, endDate string) int {
	start, err := time.Parse(models.DateLayout, startDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse(models.DateLayout, endDate)
	if err != nil {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}
