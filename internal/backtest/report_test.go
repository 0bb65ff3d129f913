package backtest

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/tradesim/internal/models"
	"github.com/yourusername/tradesim/internal/strategy"
)

func sampleResult() *models.BacktestResult {
	gain := 9950.0
	return &models.BacktestResult{
		RunID:             uuid.MustParse("4f1c2d3e-0000-4000-8000-000000000001"),
		Symbol:            "RELIANCE",
		StrategyID:        "rsi-strategy",
		Parameters:        map[string]any{"rsi-period": 14.0},
		StartDate:         "2024-01-01",
		EndDate:           "2024-01-03",
		InitialInvestment: 100000,
		FinalValue:        109930,
		TotalReturn:       9.93,
		WinRate:           100,
		ProfitFactor:      999,
		Trades: []models.Trade{
			{Date: "2024-01-01", Type: models.TradeTypeBuy, Price: 500, Quantity: 199, Value: 99500},
			{Date: "2024-01-02", Type: models.TradeTypeSell, Price: 550, Quantity: 199, Value: 109450, PnL: &gain},
		},
		EquityCurve: []models.EquityPoint{
			{Date: "2024-01-01", Value: 99990},
			{Date: "2024-01-02", Value: 109930},
			{Date: "2024-01-03", Value: 109930},
		},
	}
}

func TestGenerateRecommendation(t *testing.T) {
	tests := []struct {
		name        string
		score       float64
		consistency float64
		historical  float64
		walkForward float64
		want        string
	}{
		{"strong", 0.8, 0.75, 12, 4, RecommendAccept},
		{"weak score", 0.3, 0.75, 12, 4, RecommendReject},
		{"losing replay", 0.8, 0.75, -1, 4, RecommendReject},
		{"inconsistent", 0.8, 0.3, 12, 4, RecommendReject},
		{"middling", 0.55, 0.5, 3, 1, RecommendReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateRecommendation(tt.score, tt.consistency, tt.historical, tt.walkForward))
		})
	}
}

func TestAggregateResults(t *testing.T) {
	result := sampleResult()
	mc := MonteCarloResult{MeanReturn: 10, VaR95: -2, ProbabilityOfProfit: 0.8}
	wf := WalkForwardResult{AggregatedMetrics: Metrics{TotalReturn: 25}, ConsistencyScore: 0.75}

	agg := AggregateResults(result, mc, wf, DefaultAggregationWeights())

	historical := CalculateCompositeScore(result)
	assert.GreaterOrEqual(t, historical, 0.0)
	assert.LessOrEqual(t, historical, 1.0)
	assert.InDelta(t, historical*0.5+(60.0/150)*0.25+(75.0/150)*0.25, agg.CompositeScore, 1e-9)
	assert.Equal(t, "RELIANCE", agg.Symbol)
	assert.Equal(t, 0.8, agg.Features["probability_of_profit"])
	assert.Contains(t, []string{RecommendAccept, RecommendReview, RecommendReject}, agg.Recommendation)
}

func TestGenerateConsoleReport(t *testing.T) {
	report := GenerateConsoleReport(sampleResult(), nil)
	assert.Contains(t, report, "RELIANCE")
	assert.Contains(t, report, "Final Value: 109930.00")
	assert.Contains(t, report, "Total Return: 9.93%")
	assert.NotContains(t, report, "Recommendation")

	agg := AggregateResults(sampleResult(), MonteCarloResult{}, WalkForwardResult{}, DefaultAggregationWeights())
	assert.Contains(t, GenerateConsoleReport(sampleResult(), &agg), "Recommendation: ")
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()
	paths := NewReportPaths(dir, result)
	assert.True(t, strings.HasPrefix(filepath.Base(paths.HTML), "RELIANCE_rsi-strategy_4f1c2d3e"))

	meta := strategy.RSIStrategy().Metadata()
	bundle := NewExportBundle(meta, result, 2, 0)
	require.NoError(t, WriteReports(paths, bundle))

	html, err := os.ReadFile(paths.HTML)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<td>9950.00</td>")
	assert.Contains(t, string(html), "P&amp;L")

	f, err := os.Open(paths.TradesCSV)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-01-02", "SELL", "550.00", "199", "109450.00", "9950.00"}, rows[2])

	equity, err := os.ReadFile(paths.EquityCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(equity), "date,value,drawdown\n2024-01-01,99990.000000,0.010000\n"))

	var points []models.EquityPoint
	data, err := os.ReadFile(paths.EquityJSON)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &points))
	assert.Len(t, points, 3)

	var exported ExportBundle
	data, err = os.ReadFile(paths.ExportJSON)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, HashParameters(result.Parameters), exported.ParameterHash)
	assert.Equal(t, 1, exported.Metrics.ClosedTrades)
	assert.Equal(t, "rsi-strategy", exported.Strategy.ID)
}
