// Package backtest simulates strategy signals against price history and scores the outcome.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/logger"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/strategy"
)

// Engine orchestrates backtesting runs: history from the source, signals from the registry, fills from the simulator
type Engine struct {
	source         datasource.HistoricalSource
	registry       *strategy.Registry
	synthetic      *datasource.SyntheticSource
	options        EngineOptions
	logger         *logrus.Logger
	strategyLogger *logger.StrategyLogger
	audit          *logger.AuditLogger
	now            func() time.Time
}

// Request is one backtest in a batch
type Request struct {
	Stock      models.Stock
	StrategyID string
	Params     strategy.Parameters
	Config     BacktestConfig
}

// NewEngine creates a new backtesting engine
func NewEngine(source datasource.HistoricalSource, registry *strategy.Registry, opts EngineOptions, log *logrus.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("data source is required")
	}
	if registry == nil {
		registry = strategy.DefaultRegistry()
	}
	if log == nil {
		log = logrus.New()
	}
	opts = opts.withDefaults()
	if opts.FallbackMode != FallbackFail && opts.FallbackMode != FallbackSynthetic {
		return nil, fmt.Errorf("%w: unknown fallback mode %q", models.ErrInvalidConfig, opts.FallbackMode)
	}

	return &Engine{
		source:         source,
		registry:       registry,
		synthetic:      datasource.NewSyntheticSource(datasource.NewRand(opts.Seed), nil),
		options:        opts,
		logger:         log,
		strategyLogger: logger.NewStrategyLogger(log),
		audit:          logger.NewAuditLogger(log),
		now:            time.Now,
	}, nil
}

// Options returns the engine options
func (e *Engine) Options() EngineOptions {
	return e.options
}

// Registry returns the strategy registry
func (e *Engine) Registry() *strategy.Registry {
	return e.registry
}

// RunBacktest replays strategyID over the stock's history between cfg's dates
func (e *Engine) RunBacktest(ctx context.Context, stock models.Stock, strategyID string, params strategy.Parameters, cfg BacktestConfig) (*models.BacktestResult, error) {
	started := time.Now()
	result, err := e.runBacktest(ctx, stock, strategyID, params, cfg)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordBacktestRun(strategyID, "replay", status, time.Since(started).Seconds())
	return result, err
}

func (e *Engine) runBacktest(ctx context.Context, stock models.Stock, strategyID string, params strategy.Parameters, cfg BacktestConfig) (*models.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	def, err := e.registry.Lookup(strategyID)
	if err != nil {
		return nil, err
	}
	resolved, err := def.Resolve(params)
	if err != nil {
		e.strategyLogger.LogParameterRejection(strategyID, params, err)
		return nil, err
	}

	bars, synthetic, err := e.loadBars(ctx, stock, cfg)
	if err != nil {
		return nil, err
	}

	signals, fallback, err := e.generateSignals(def, stock.Symbol, bars, resolved)
	if err != nil {
		return nil, err
	}

	state, err := Simulate(bars, signals, SimulationConfig{InitialCapital: cfg.InitialCapital, Commission: cfg.Commission})
	if err != nil {
		return nil, err
	}

	result := &models.BacktestResult{
		RunID:           uuid.New(),
		Symbol:          stock.Symbol,
		StrategyID:      strategyID,
		Parameters:      resolved,
		StartDate:       cfg.StartDate,
		EndDate:         cfg.EndDate,
		Trades:          state.Trades,
		EquityCurve:     state.EquityCurve,
		SyntheticData:   synthetic,
		FallbackSignals: fallback,
		CreatedAt:       e.now().UTC(),
	}
	CalculateMetrics(state, cfg.Span(), e.options.RiskFreeRate).Apply(result)

	runID := result.RunID.String()
	for _, trade := range result.Trades {
		e.audit.LogTrade(runID, stock.Symbol, trade)
		metrics.RecordSimulatedTrade(strategyID, string(trade.Type))
	}
	e.audit.LogBacktestSummary(result)
	metrics.UpdateTotalReturn(stock.Symbol, strategyID, result.TotalReturn)

	return result, nil
}

// RunBatch runs independent backtests concurrently, at most max_concurrency at a time.
// Results keep request order; the first failure cancels the rest.
func (e *Engine) RunBatch(ctx context.Context, requests []Request) ([]*models.BacktestResult, error) {
	results := make([]*models.BacktestResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.options.MaxConcurrency)
	for i, req := range requests {
		g.Go(func() error {
			result, err := e.RunBacktest(gctx, req.Stock, req.StrategyID, req.Params, req.Config)
			if err != nil {
				return fmt.Errorf("backtest %d (%s/%s): %w", i, req.Stock.Symbol, req.StrategyID, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LoadBars fetches the history a run would use, applying the synthetic fallback when enabled
func (e *Engine) LoadBars(ctx context.Context, stock models.Stock, cfg BacktestConfig) ([]models.PricePoint, bool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return e.loadBars(ctx, stock, cfg)
}

func (e *Engine) loadBars(ctx context.Context, stock models.Stock, cfg BacktestConfig) ([]models.PricePoint, bool, error) {
	start, _ := time.Parse(models.DateLayout, cfg.StartDate)
	end, _ := time.Parse(models.DateLayout, cfg.EndDate)

	bars, err := e.source.GetHistoricalData(ctx, stock.Symbol, start, end)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}
	if err == nil && len(bars) > 0 {
		if verr := models.ValidateSeries(bars); verr != nil {
			return nil, false, fmt.Errorf("%w: %s: %v", models.ErrDataUnavailable, stock.Symbol, verr)
		}
		return bars, false, nil
	}

	reason := "no historical data"
	if err != nil {
		reason = err.Error()
	}
	if e.options.FallbackMode != FallbackSynthetic {
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s: %w", models.ErrDataUnavailable, stock.Symbol, err)
		}
		return nil, false, fmt.Errorf("%w: %s between %s and %s", models.ErrDataUnavailable, stock.Symbol, cfg.StartDate, cfg.EndDate)
	}

	e.audit.LogDataFallback(stock.Symbol, reason)
	bars = e.synthetic.Generate(stock.Symbol, stock.Price, start, end)
	if len(bars) == 0 {
		return nil, false, fmt.Errorf("%w: %s: empty date range", models.ErrDataUnavailable, stock.Symbol)
	}
	return bars, true, nil
}

func (e *Engine) generateSignals(def strategy.Definition, symbol string, bars []models.PricePoint, params strategy.Parameters) ([]strategy.Signal, bool, error) {
	prices, dates, _ := models.Series(bars)

	started := time.Now()
	result, _, err := def.Generate(prices, dates, params)
	if err != nil {
		return nil, false, err
	}
	elapsed := float64(time.Since(started).Microseconds()) / 1000

	buys, sells := result.Count(strategy.SignalBuy), result.Count(strategy.SignalSell)
	if result.Fallback {
		e.strategyLogger.LogInsufficientHistory(string(def.ID), symbol, len(bars), models.ErrInsufficientData)
		metrics.RecordStrategyFallback(string(def.ID))
	}
	e.strategyLogger.LogSignalGeneration(string(def.ID), symbol, len(bars), buys, sells, result.Fallback, elapsed)
	metrics.RecordSignals(string(def.ID), buys, sells)

	return result.Signals, result.Fallback, nil
}
