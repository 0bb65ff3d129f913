package backtest

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tradesim/internal/models"
)

// GenerateConsoleReport formats a run for terminal output. agg may be nil for a replay-only run.
func GenerateConsoleReport(result *models.BacktestResult, agg *AggregatedResult) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run: %s\n", result.RunID))
	builder.WriteString(fmt.Sprintf("Symbol: %s  Strategy: %s\n", result.Symbol, result.StrategyID))
	builder.WriteString(fmt.Sprintf("Period: %s to %s\n", result.StartDate, result.EndDate))
	if result.SyntheticData {
		builder.WriteString("Data: synthetic fallback\n")
	}
	if result.FallbackSignals {
		builder.WriteString("Signals: short-history fallback\n")
	}
	builder.WriteString(fmt.Sprintf("Initial Investment: %s\n", money(result.InitialInvestment)))
	builder.WriteString(fmt.Sprintf("Final Value: %s\n", money(result.FinalValue)))
	builder.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", result.TotalReturn))
	builder.WriteString(fmt.Sprintf("Annualized Return: %.2f%%\n", result.AnnualizedReturn))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", result.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Sortino Ratio: %.2f\n", result.SortinoRatio))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", result.MaxDrawdown))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", result.WinRate))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", result.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Trades: %d\n", len(result.Trades)))

	if agg != nil {
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Monte Carlo Mean Return: %.2f%% (P(profit) %.0f%%, VaR95 %.2f%%)\n",
			agg.MonteCarloResult.MeanReturn, agg.MonteCarloResult.ProbabilityOfProfit*100, agg.MonteCarloResult.VaR95))
		builder.WriteString(fmt.Sprintf("Walk-Forward Return: %.2f%% over %d windows (consistency %.0f%%)\n",
			agg.WalkForwardResult.AggregatedMetrics.TotalReturn, len(agg.WalkForwardResult.Windows), agg.WalkForwardResult.ConsistencyScore*100))
		builder.WriteString(fmt.Sprintf("Composite Score: %.2f\n", agg.CompositeScore))
		builder.WriteString(fmt.Sprintf("Recommendation: %s\n", agg.Recommendation))
	}
	return builder.String()
}

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"money":   money,
	"percent": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "%" },
	"ratio":   func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"pnl": func(p *float64) string {
		if p == nil {
			return ""
		}
		return money(*p)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><title>Backtest Report: {{.Result.Symbol}} / {{.Result.StrategyID}}</title></head>
<body>
<h1>Backtest Report</h1>
<p><strong>Symbol:</strong> {{.Result.Symbol}} &nbsp; <strong>Strategy:</strong> {{.Result.StrategyID}}</p>
<p><strong>Period:</strong> {{.Result.StartDate}} to {{.Result.EndDate}}{{if .Result.SyntheticData}} (synthetic data){{end}}</p>
<p><strong>Final Value:</strong> {{money .Result.FinalValue}} from {{money .Result.InitialInvestment}}</p>
<p><strong>Total Return:</strong> {{percent .Result.TotalReturn}}</p>
<p><strong>Annualized Return:</strong> {{percent .Result.AnnualizedReturn}}</p>
<p><strong>Sharpe Ratio:</strong> {{ratio .Result.SharpeRatio}}</p>
<p><strong>Sortino Ratio:</strong> {{ratio .Result.SortinoRatio}}</p>
<p><strong>Max Drawdown:</strong> {{percent .Result.MaxDrawdown}}</p>
<p><strong>Win Rate:</strong> {{percent .Result.WinRate}}</p>
<p><strong>Profit Factor:</strong> {{ratio .Result.ProfitFactor}}</p>
{{if .Aggregated}}<p><strong>Composite Score:</strong> {{ratio .Aggregated.CompositeScore}}</p>
<p><strong>Recommendation:</strong> {{.Aggregated.Recommendation}}</p>
{{end}}<h2>Trades</h2>
<table>
<tr><th>Date</th><th>Type</th><th>Price</th><th>Quantity</th><th>Value</th><th>P&amp;L</th></tr>
{{range .Result.Trades}}<tr><td>{{.Date}}</td><td>{{.Type}}</td><td>{{money .Price}}</td><td>{{.Quantity}}</td><td>{{money .Value}}</td><td>{{pnl .PnL}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// GenerateHTMLReport writes a standalone HTML report
func GenerateHTMLReport(result *models.BacktestResult, agg *AggregatedResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return htmlReport.Execute(f, struct {
		Result     *models.BacktestResult
		Aggregated *AggregatedResult
	}{result, agg})
}

// GenerateCSVExport exports key metrics for spreadsheets
func GenerateCSVExport(result *models.BacktestResult, agg *AggregatedResult, outputPath string) error {
	rows := [][]string{
		{"metric", "value"},
		{"symbol", result.Symbol},
		{"strategy_id", result.StrategyID},
		{"initial_investment", money(result.InitialInvestment)},
		{"final_value", money(result.FinalValue)},
		{"total_return", fixed(result.TotalReturn)},
		{"annualized_return", fixed(result.AnnualizedReturn)},
		{"sharpe_ratio", fixed(result.SharpeRatio)},
		{"sortino_ratio", fixed(result.SortinoRatio)},
		{"max_drawdown", fixed(result.MaxDrawdown)},
		{"win_rate", fixed(result.WinRate)},
		{"profit_factor", fixed(result.ProfitFactor)},
		{"trades", strconv.Itoa(len(result.Trades))},
		{"synthetic_data", strconv.FormatBool(result.SyntheticData)},
	}
	if agg != nil {
		rows = append(rows,
			[]string{"composite_score", fixed(agg.CompositeScore)},
			[]string{"recommendation", agg.Recommendation},
		)
	}
	return writeCSV(outputPath, rows)
}

// WriteTradesCSV exports the trade log
func WriteTradesCSV(result *models.BacktestResult, outputPath string) error {
	rows := [][]string{{"date", "type", "price", "quantity", "value", "pnl"}}
	for _, t := range result.Trades {
		pnl := ""
		if t.PnL != nil {
			pnl = money(*t.PnL)
		}
		rows = append(rows, []string{t.Date, string(t.Type), money(t.Price), strconv.FormatInt(t.Quantity, 10), money(t.Value), pnl})
	}
	return writeCSV(outputPath, rows)
}

// WriteEquityCurve writes the curve as JSON when outputPath ends in .json, CSV otherwise
func WriteEquityCurve(result *models.BacktestResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	curve := EquityCurve(result.EquityCurve)
	content := curve.ToCSV(result.InitialInvestment)
	if strings.EqualFold(filepath.Ext(outputPath), ".json") {
		content = curve.ToJSON()
	}
	return os.WriteFile(outputPath, []byte(content), 0o644)
}

func writeCSV(outputPath string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

// money rounds half away from zero to two places
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}
