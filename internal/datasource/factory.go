package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	CSVSourceType          SourceType = "csv"
	AlphaVantageSourceType SourceType = "alphavantage"
	SyntheticSourceType    SourceType = "synthetic"
)

// NewSource builds the configured source, wrapped in a TTL cache when cache_ttl_seconds is positive.
// Remote sources sit behind a circuit breaker.
func NewSource(cfg config.DataSourceConfig, logger *logrus.Logger) (Source, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var source Source
	switch SourceType(cfg.Type) {
	case CSVSourceType:
		csvSource, err := NewCSVSource(cfg.CSVPath, NewRand(cfg.Seed), logger)
		if err != nil {
			return nil, err
		}
		source = csvSource

	case AlphaVantageSourceType:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("alphavantage API key is required")
		}
		httpCfg := DefaultHTTPClientConfig()
		if cfg.TimeoutSeconds > 0 {
			httpCfg.Timeout = cfg.Timeout()
		}
		httpCfg.MaxRetries = cfg.MaxRetries
		if cfg.RateLimit > 0 {
			httpCfg.RateLimit = cfg.RateLimit
		}
		av := NewAlphaVantageSource(NewRateLimitedHTTPClient(httpCfg, logger), AlphaVantageConfig{
			BaseURL:        cfg.BaseURL,
			APIKey:         cfg.APIKey,
			ExchangeSuffix: cfg.ExchangeSuffix,
			SymbolMap:      cfg.SymbolMap,
		}, logger)
		source = NewBreakerSource(av, DefaultBreakerConfig(), logger)

	case SyntheticSourceType:
		source = NewSyntheticSource(NewRand(cfg.Seed), nil)

	default:
		return nil, fmt.Errorf("unknown data source type: %s", cfg.Type)
	}

	if ttl := cfg.CacheTTL(); ttl > 0 {
		logger.WithFields(logrus.Fields{"source": source.Name(), "ttl": ttl.String()}).Info("Data source cache enabled")
		return NewCachedSource(source, ttl, logger), nil
	}
	return source, nil
}

