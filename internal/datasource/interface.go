// Package datasource provides market data adapters: CSV history, Alpha Vantage, synthetic random walks and a TTL cache.
package datasource

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/yourusername/tradesim/internal/models"
)

// HistoricalSource returns ascending daily bars for a symbol within [start, end]
type HistoricalSource interface {
	GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error)
}

// QuoteSource returns the latest known bar for a symbol
type QuoteSource interface {
	GetLatestQuote(ctx context.Context, symbol string) (models.PricePoint, error)
}

// Source is a named provider of history and quotes
type Source interface {
	HistoricalSource
	QuoteSource
	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap exposes the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
)

// Sentinels carried in DataSourceError.Err
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNotFound          = errors.New("data not found")
	ErrInvalidData       = errors.New("invalid data format")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of a DataSourceError anywhere in err's chain, or "" if there is none
func ErrorCode(err error) string {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	return ""
}

// NewRand returns a generator seeded with seed, or with the current time when seed is 0
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// inRange reports whether a YYYY-MM-DD date lies within [start, end]. Zero bounds are open.
func inRange(date string, start, end time.Time) bool {
	if !start.IsZero() && date < start.Format(models.DateLayout) {
		return false
	}
	if !end.IsZero() && date > end.Format(models.DateLayout) {
		return false
	}
	return true
}
