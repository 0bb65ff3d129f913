package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/prediction"
	"github.com/yourusername/tradesim/internal/strategy"
)

type predictOptions struct {
	symbols       []string
	days          int
	confidence    int
	multi         bool
	priorStrategy string
}

func newPredictCmd() *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast a stock's price with the indicator ensemble",
		Example: `  tradesim predict --symbol RELIANCE --days 7
  tradesim predict --symbol TCS --multi
  tradesim predict --symbol INFY --prior-strategy rsi-strategy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredictCmd(cmd.Context(), cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.symbols, "symbol", "s", nil, "Stock symbol(s) to forecast")
	flags.IntVarP(&opts.days, "days", "d", 0, "Forecast horizon in days (defaults to prediction.days)")
	flags.IntVar(&opts.confidence, "confidence", 0, "Confidence threshold to flag (defaults to prediction.confidence)")
	flags.BoolVar(&opts.multi, "multi", false, "Forecast the 1, 7 and 30 day horizons")
	flags.StringVar(&opts.priorStrategy, "prior-strategy", "", "Backtest this strategy first and let a strong result boost confidence")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

func runPredictCmd(ctx context.Context, cmd *cobra.Command, opts *predictOptions) error {
	symbols := splitSymbols(opts.symbols)
	if len(symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	predCfg := prediction.Config{
		Days:       cfg.Prediction.Days,
		Confidence: cfg.Prediction.Confidence,
		UseML:      cfg.Prediction.UseML,
	}
	if cmd.Flags().Changed("days") {
		predCfg.Days = opts.days
	}
	if cmd.Flags().Changed("confidence") {
		predCfg.Confidence = opts.confidence
	}
	if err := predCfg.Validate(); err != nil {
		return err
	}

	source, err := datasource.NewSource(cfg.DataSource, log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	predictor, err := prediction.NewPredictor(source, prediction.NewCache(cfg.Prediction.CacheTTL()), datasource.NewRand(cfg.Prediction.Seed), log)
	if err != nil {
		return err
	}

	var predictions []*models.Prediction
	for _, symbol := range symbols {
		stock := resolveStock(ctx, source, symbol)

		if opts.multi {
			batch, err := predictor.GenerateMultiplePredictions(ctx, stock)
			if err != nil {
				return fmt.Errorf("%s: %w", symbol, err)
			}
			predictions = append(predictions, batch...)
			continue
		}

		prior, err := priorBacktest(ctx, source, stock, opts.priorStrategy)
		if err != nil {
			return err
		}
		p, err := predictor.GeneratePrediction(ctx, stock, predCfg, prior)
		if err != nil {
			return fmt.Errorf("%s: %w", symbol, err)
		}
		predictions = append(predictions, p)
	}

	return printPredictions(cmd.OutOrStdout(), predictions, predCfg.Confidence)
}

// priorBacktest replays strategyID with the configured backtest defaults. An empty id means no prior.
func priorBacktest(ctx context.Context, source datasource.HistoricalSource, stock models.Stock, strategyID string) (*models.BacktestResult, error) {
	if strategyID == "" {
		return nil, nil
	}
	btConfig, engineOpts, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return nil, err
	}
	engine, err := backtest.NewEngine(source, strategy.DefaultRegistry(), engineOpts, log)
	if err != nil {
		return nil, err
	}
	result, err := engine.RunBacktest(ctx, stock, strategyID, nil, btConfig)
	if err != nil {
		return nil, fmt.Errorf("prior backtest for %s: %w", stock.Symbol, err)
	}
	return result, nil
}

func printPredictions(out io.Writer, predictions []*models.Prediction, threshold int) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tDATE\tTARGET\tDAYS\tPRICE\tDIRECTION\tCONFIDENCE\tMODE")
	for _, p := range predictions {
		mode := "ensemble"
		if p.Degraded {
			mode = "degraded"
		}
		marker := ""
		if !p.MeetsThreshold(threshold) {
			marker = " (below threshold)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\t%d%%%s\t%s\n",
			p.StockSymbol, p.Date, p.TargetDate, p.Days, p.PredictedPrice, p.PredictedDirection, p.Confidence, marker, mode)
	}
	return w.Flush()
}
