package logger

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/models"
)

// AuditLogger records simulated executions and run summaries.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogTrade logs a simulated fill.
func (al *AuditLogger) LogTrade(runID, symbol string, trade models.Trade) {
	fields := logrus.Fields{
		"run_id":   runID,
		"symbol":   symbol,
		"date":     trade.Date,
		"side":     trade.Type,
		"price":    trade.Price,
		"quantity": trade.Quantity,
		"value":    trade.Value,
	}
	if trade.PnL != nil {
		fields["pnl"] = *trade.PnL
	}
	al.WithFields(fields).Debug("Simulated trade executed")
}

// LogBacktestSummary logs the headline numbers of a finished run.
func (al *AuditLogger) LogBacktestSummary(result *models.BacktestResult) {
	al.WithFields(logrus.Fields{
		"run_id":         result.RunID.String(),
		"symbol":         result.Symbol,
		"strategy_id":    result.StrategyID,
		"start_date":     result.StartDate,
		"end_date":       result.EndDate,
		"trades":         len(result.Trades),
		"final_value":    result.FinalValue,
		"total_return":   result.TotalReturn,
		"max_drawdown":   result.MaxDrawdown,
		"sharpe_ratio":   result.SharpeRatio,
		"synthetic_data": result.SyntheticData,
	}).Info("Backtest run recorded")
}

// LogDataFallback logs a switch to synthetic history.
func (al *AuditLogger) LogDataFallback(symbol, reason string) {
	al.WithFields(logrus.Fields{
		"symbol": symbol,
		"reason": reason,
	}).Warn("Falling back to synthetic price history")
}
