package datasource

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
)

// DefaultCacheTTL is the quote and history cache lifetime used when none is configured
const DefaultCacheTTL = time.Minute

// CachedSource memoises another source's history and quotes for a TTL
type CachedSource struct {
	source Source
	cache  *cache.Cache
	ttl    time.Duration
	logger *logrus.Entry
}

// NewCachedSource wraps source with a TTL cache
func NewCachedSource(source Source, ttl time.Duration, logger *logrus.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, ttl*2),
		ttl:    ttl,
		logger: logger.WithField("component", "datasource_cache").WithField("source", source.Name()),
	}
}

// Name returns the wrapped source's name
func (c *CachedSource) Name() string {
	return c.source.Name()
}

// GetHistoricalData returns cached bars for the exact symbol and range, fetching on miss
func (c *CachedSource) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	key := fmt.Sprintf("history:%s:%s:%s", symbol, formatBound(start), formatBound(end))
	if cached, found := c.cache.Get(key); found {
		if bars, ok := cached.([]models.PricePoint); ok {
			metrics.RecordCacheLookup("datasource", true)
			return append([]models.PricePoint(nil), bars...), nil
		}
	}
	metrics.RecordCacheLookup("datasource", false)

	bars, err := c.source.GetHistoricalData(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, bars, c.ttl)
	c.logger.WithFields(logrus.Fields{"symbol": symbol, "bars": len(bars)}).Debug("Cached history")
	return append([]models.PricePoint(nil), bars...), nil
}

// GetLatestQuote returns a cached quote, fetching on miss
func (c *CachedSource) GetLatestQuote(ctx context.Context, symbol string) (models.PricePoint, error) {
	key := "quote:" + symbol
	if cached, found := c.cache.Get(key); found {
		if quote, ok := cached.(models.PricePoint); ok {
			metrics.RecordCacheLookup("datasource", true)
			return quote, nil
		}
	}
	metrics.RecordCacheLookup("datasource", false)

	quote, err := c.source.GetLatestQuote(ctx, symbol)
	if err != nil {
		return models.PricePoint{}, err
	}
	c.cache.Set(key, quote, c.ttl)
	return quote, nil
}

// Flush drops every cached entry
func (c *CachedSource) Flush() {
	c.cache.Flush()
}

// ItemCount returns the number of cached entries, including expired ones not yet cleaned up
func (c *CachedSource) ItemCount() int {
	return c.cache.ItemCount()
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(models.DateLayout)
}
