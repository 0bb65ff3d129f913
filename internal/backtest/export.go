package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/strategy"
)

// ExportBundle is the machine-readable record of a run and whichever evaluations accompanied it
type ExportBundle struct {
	Strategy      strategy.Metadata      `json:"strategy"`
	ParameterHash string                 `json:"parameter_hash"`
	Result        *models.BacktestResult `json:"result"`
	Metrics       Metrics                `json:"metrics"`
	MonteCarlo    *MonteCarloResult      `json:"monte_carlo,omitempty"`
	WalkForward   *WalkForwardResult     `json:"walk_forward,omitempty"`
	Aggregated    *AggregatedResult      `json:"aggregated,omitempty"`
	ExportedAt    time.Time              `json:"exported_at"`
}

// NewExportBundle assembles a bundle. The full metric set is recomputed from the result's trade log and curve.
func NewExportBundle(meta strategy.Metadata, result *models.BacktestResult, days int, riskFreeRate float64) ExportBundle {
	state := &SimulationState{
		InitialCapital: result.InitialInvestment,
		Trades:         result.Trades,
		EquityCurve:    result.EquityCurve,
	}
	return ExportBundle{
		Strategy:      meta,
		ParameterHash: HashParameters(result.Parameters),
		Result:        result,
		Metrics:       CalculateMetrics(state, days, riskFreeRate),
		ExportedAt:    time.Now().UTC(),
	}
}

// WriteJSON writes the bundle to outputPath
func (b ExportBundle) WriteJSON(outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// ReportPaths are the files a run writes under an output directory
type ReportPaths struct {
	HTML       string
	MetricsCSV string
	TradesCSV  string
	EquityCSV  string
	EquityJSON string
	ExportJSON string
}

// NewReportPaths names a run's report files after its symbol, strategy and run id
func NewReportPaths(dir string, result *models.BacktestResult) ReportPaths {
	base := filepath.Join(dir, fmt.Sprintf("%s_%s_%s", result.Symbol, result.StrategyID, result.RunID.String()[:8]))
	return ReportPaths{
		HTML:       base + ".html",
		MetricsCSV: base + "_metrics.csv",
		TradesCSV:  base + "_trades.csv",
		EquityCSV:  base + "_equity.csv",
		EquityJSON: base + "_equity.json",
		ExportJSON: base + "_export.json",
	}
}

// WriteReports writes every report for a run
func WriteReports(paths ReportPaths, bundle ExportBundle) error {
	writers := []func() error{
		func() error { return GenerateHTMLReport(bundle.Result, bundle.Aggregated, paths.HTML) },
		func() error { return GenerateCSVExport(bundle.Result, bundle.Aggregated, paths.MetricsCSV) },
		func() error { return WriteTradesCSV(bundle.Result, paths.TradesCSV) },
		func() error { return WriteEquityCurve(bundle.Result, paths.EquityCSV) },
		func() error { return WriteEquityCurve(bundle.Result, paths.EquityJSON) },
		func() error { return bundle.WriteJSON(paths.ExportJSON) },
	}
	for _, write := range writers {
		if err := write(); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
