// Package main provides the tradesim command line: backtests, predictions, the strategy catalog and a watch loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/tradesim/internal/config"
	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/logger"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	envFile    string
	cfg        *config.Config
	log        *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "tradesim",
	Short:         "Backtest trading strategies and generate price predictions",
	Long:          `Replays indicator-driven strategies over historical prices, scores them, and forecasts prices with an indicator ensemble.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log = logger.New(os.Stderr, cfg.App.LogLevel, cfg.App.Environment)
		metrics.InitRegistry()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before the configuration")

	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newStrategiesCmd())
	rootCmd.AddCommand(newWatchCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func loadConfig(ctx context.Context) error {
	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if loaded.Secrets.Enabled {
		secretsCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := config.LoadSecretsFromAWS(secretsCtx, loaded); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// resolveStock looks up the latest quote for symbol. Without one the price is left at zero and
// downstream code falls back to the last historical bar or the synthetic default.
func resolveStock(ctx context.Context, quotes datasource.QuoteSource, symbol string) models.Stock {
	stock := models.Stock{Symbol: strings.ToUpper(strings.TrimSpace(symbol))}
	quote, err := quotes.GetLatestQuote(ctx, stock.Symbol)
	if err != nil {
		log.WithField("symbol", stock.Symbol).WithError(err).Warn("No latest quote, continuing without a current price")
		return stock
	}
	stock.Price = quote.Price
	return stock
}

// splitSymbols accepts repeated and comma separated symbols
func splitSymbols(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
