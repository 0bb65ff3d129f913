package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/strategy"
)

const (
	modeReplay      = "replay"
	modeMonteCarlo  = "monte-carlo"
	modeWalkForward = "walk-forward"
	modeAll         = "all"
)

type backtestOptions struct {
	symbols    []string
	strategyID string
	params     []string
	start      string
	end        string
	capital    float64
	commission float64
	days       int
	mode       string
	output     string
}

func newBacktestCmd() *cobra.Command {
	opts := &backtestOptions{}
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a strategy over historical prices",
		Example: `  tradesim backtest --symbol RELIANCE --strategy rsi-strategy --param rsi-period=10
  tradesim backtest --symbol TCS,INFY --strategy macd-strategy --mode all --output reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktestCmd(cmd.Context(), cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.symbols, "symbol", "s", nil, "Stock symbol(s) to backtest")
	flags.StringVar(&opts.strategyID, "strategy", string(strategy.KindMovingAverageCrossover), "Strategy id (see `tradesim strategies`)")
	flags.StringArrayVarP(&opts.params, "param", "p", nil, "Strategy parameter as key=value, repeatable")
	flags.StringVar(&opts.start, "start", "", "Override start date (YYYY-MM-DD)")
	flags.StringVar(&opts.end, "end", "", "Override end date (YYYY-MM-DD)")
	flags.Float64Var(&opts.capital, "capital", 0, "Override initial capital")
	flags.Float64Var(&opts.commission, "commission", 0, "Override flat commission per trade")
	flags.IntVar(&opts.days, "days", 0, "Override the day count used for annualisation")
	flags.StringVarP(&opts.mode, "mode", "m", modeReplay, "Backtest mode: replay, monte-carlo, walk-forward, all")
	flags.StringVarP(&opts.output, "output", "o", "", "Directory for HTML/CSV/JSON reports (defaults to backtest.output_path)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

func runBacktestCmd(ctx context.Context, cmd *cobra.Command, opts *backtestOptions) error {
	switch opts.mode {
	case modeReplay, modeMonteCarlo, modeWalkForward, modeAll:
	default:
		return fmt.Errorf("unsupported mode %q", opts.mode)
	}
	symbols := splitSymbols(opts.symbols)
	if len(symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	btConfig, engineOpts, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return err
	}
	applyOverrides(cmd, &btConfig, opts)
	if err := btConfig.Validate(); err != nil {
		return err
	}

	source, err := datasource.NewSource(cfg.DataSource, log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	engine, err := backtest.NewEngine(source, strategy.DefaultRegistry(), engineOpts, log)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	def, err := engine.Registry().Lookup(opts.strategyID)
	if err != nil {
		return err
	}
	params, err := parseParams(def, opts.params)
	if err != nil {
		return err
	}

	requests := make([]backtest.Request, 0, len(symbols))
	for _, symbol := range symbols {
		requests = append(requests, backtest.Request{
			Stock:      resolveStock(ctx, source, symbol),
			StrategyID: opts.strategyID,
			Params:     params,
			Config:     btConfig,
		})
	}

	log.WithFields(logrus.Fields{
		"mode":     opts.mode,
		"strategy": opts.strategyID,
		"symbols":  strings.Join(symbols, ","),
		"source":   source.Name(),
	}).Info("Starting backtest")

	results, err := engine.RunBatch(ctx, requests)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = engineOpts.OutputPath
	}
	for i, result := range results {
		if err := reportRun(ctx, cmd.OutOrStdout(), engine, def, requests[i], result, opts.mode, output); err != nil {
			return err
		}
	}
	return nil
}

func applyOverrides(cmd *cobra.Command, btConfig *backtest.BacktestConfig, opts *backtestOptions) {
	if opts.start != "" {
		btConfig.StartDate = opts.start
	}
	if opts.end != "" {
		btConfig.EndDate = opts.end
	}
	if cmd.Flags().Changed("capital") {
		btConfig.InitialCapital = opts.capital
	}
	if cmd.Flags().Changed("commission") {
		btConfig.Commission = opts.commission
	}
	if cmd.Flags().Changed("days") {
		btConfig.Days = opts.days
	}
}

// parseParams turns key=value pairs into typed parameters using the strategy's schema
func parseParams(def strategy.Definition, raw []string) (strategy.Parameters, error) {
	specs := make(map[string]strategy.ParameterSpec, len(def.Parameters))
	for _, spec := range def.Parameters {
		specs[spec.ID] = spec
	}

	params := make(strategy.Parameters, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", models.ErrInvalidParameters, pair)
		}
		spec, known := specs[key]
		if !known {
			return nil, fmt.Errorf("%w: %s has no parameter %q", models.ErrInvalidParameters, def.ID, key)
		}
		parsed, err := strategy.ParseParameter(spec, strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidParameters, err.Error())
		}
		params[key] = parsed
	}
	return params, nil
}

func reportRun(ctx context.Context, out io.Writer, engine *backtest.Engine, def strategy.Definition, req backtest.Request, result *models.BacktestResult, mode, outputDir string) error {
	opts := engine.Options()
	bundle := backtest.NewExportBundle(def.Metadata(), result, req.Config.Span(), opts.RiskFreeRate)
	runLog := log.WithFields(logrus.Fields{"symbol": result.Symbol, "run_id": result.RunID.String()})

	var monteCarlo backtest.MonteCarloResult
	if mode == modeMonteCarlo || mode == modeAll {
		mc, err := backtest.RunMonteCarlo(ctx, backtest.EquityCurve(result.EquityCurve), backtest.MonteCarloConfig{
			StrategyID:     result.StrategyID,
			Iterations:     opts.MonteCarloIterations,
			Seed:           opts.Seed,
			InitialCapital: result.InitialInvestment,
		})
		switch {
		case err == nil:
			monteCarlo = mc
			bundle.MonteCarlo = &mc
		case mode == modeAll:
			runLog.WithError(err).Warn("Skipping Monte Carlo simulation")
		default:
			return fmt.Errorf("monte carlo for %s: %w", result.Symbol, err)
		}
	}

	var walkForward backtest.WalkForwardResult
	if mode == modeWalkForward || mode == modeAll {
		wf, err := engine.RunWalkForward(ctx, req.Stock, req.StrategyID, req.Params, req.Config)
		switch {
		case err == nil:
			walkForward = wf
			bundle.WalkForward = &wf
		case mode == modeAll:
			runLog.WithError(err).Warn("Skipping walk-forward evaluation")
		default:
			return fmt.Errorf("walk-forward for %s: %w", result.Symbol, err)
		}
	}

	if mode == modeAll {
		agg := backtest.AggregateResults(result, monteCarlo, walkForward, backtest.DefaultAggregationWeights())
		bundle.Aggregated = &agg
	}

	fmt.Fprintln(out, backtest.GenerateConsoleReport(result, bundle.Aggregated))
	if bundle.MonteCarlo != nil {
		fmt.Fprintf(out, "Monte Carlo (%d paths): mean %.2f%%  median %.2f%%  VaR95 %.2f%%  P(profit) %.1f%%  P(ruin) %.1f%%\n",
			monteCarlo.Iterations, monteCarlo.MeanReturn, monteCarlo.MedianReturn, monteCarlo.VaR95,
			monteCarlo.ProbabilityOfProfit*100, monteCarlo.ProbabilityOfRuin*100)
	}
	if bundle.WalkForward != nil {
		fmt.Fprintf(out, "Walk-forward (%d windows): consistency %.2f  overfit %.2f\n",
			len(walkForward.Windows), walkForward.ConsistencyScore, walkForward.OverfitScore)
	}

	if outputDir == "" {
		return nil
	}
	paths := backtest.NewReportPaths(outputDir, result)
	if err := backtest.WriteReports(paths, bundle); err != nil {
		return err
	}
	runLog.WithFields(logrus.Fields{"html": paths.HTML, "export": paths.ExportJSON}).Info("Reports written")
	return nil
}
