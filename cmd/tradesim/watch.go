package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/health"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/prediction"
	"github.com/yourusername/tradesim/internal/scheduler"
)

func newWatchCmd() *cobra.Command {
	var (
		symbols []string
		refresh string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh predictions for a watchlist on a schedule and serve metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			watchlist := splitSymbols(cfg.Scheduler.Symbols)
			if len(symbols) > 0 {
				watchlist = splitSymbols(symbols)
			}
			spec := cfg.Scheduler.PredictionRefresh
			if refresh != "" {
				spec = refresh
			}
			return runWatch(cmd.Context(), watchlist, spec)
		},
	}
	cmd.Flags().StringSliceVarP(&symbols, "symbol", "s", nil, "Override scheduler.symbols")
	cmd.Flags().StringVar(&refresh, "refresh", "", "Override scheduler.prediction_refresh (cron expression)")
	return cmd
}

func runWatch(ctx context.Context, watchlist []string, spec string) error {
	if len(watchlist) == 0 {
		return errors.New("no symbols to watch: set scheduler.symbols or pass --symbol")
	}
	if spec == "" {
		return errors.New("no refresh schedule: set scheduler.prediction_refresh or pass --refresh")
	}

	source, err := datasource.NewSource(cfg.DataSource, log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	cache := prediction.NewCache(cfg.Prediction.CacheTTL())
	predictor, err := prediction.NewPredictor(source, cache, datasource.NewRand(cfg.Prediction.Seed), log)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(predictor, source, cache, log)
	if err := sched.SchedulePredictionRefresh(spec, watchlist); err != nil {
		return err
	}

	server := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Port:        cfg.Metrics.Port,
		MetricsPath: cfg.Metrics.Path,
		Logger:      log,
		Checks: []health.Checker{
			health.CheckFunc{Label: "scheduler", Fn: func(context.Context) error {
				if !sched.IsRunning() {
					return errors.New("not running")
				}
				return nil
			}},
			health.CheckFunc{Label: "data_source", Fn: func(ctx context.Context) error {
				_, err := source.GetLatestQuote(ctx, watchlist[0])
				return err
			}},
		},
		MetricsHandler: metricsHandler(),
	})
	addr, err := server.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	summary := sched.RefreshPredictions(ctx, watchlist)
	log.WithFields(logrus.Fields{
		"refreshed": summary.Refreshed,
		"failed":    summary.Failed,
		"addr":      addr,
	}).Info("Initial prediction refresh complete")

	if err := sched.Start(); err != nil {
		return err
	}
	server.SetReady(true)
	log.WithField("next_run", sched.GetNextRun()).Info("Watching")

	<-ctx.Done()
	server.SetReady(false)
	log.Info("Shutting down")
	return sched.Stop()
}

func metricsHandler() http.Handler {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.Handler()
}
