package prediction

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
)

// DefaultCacheTTL is used when NewCache is given a non-positive TTL
const DefaultCacheTTL = 15 * time.Minute

// CacheKey identifies one cached prediction
type CacheKey struct {
	Symbol string
	Days   int
	UseML  bool
	Date   string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%d:%t:%s", strings.ToUpper(k.Symbol), k.Days, k.UseML, k.Date)
}

// Cache keeps recent predictions in memory
type Cache struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewCache creates a new prediction cache
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get returns a copy of the cached prediction, or nil on a miss
func (c *Cache) Get(key CacheKey) *models.Prediction {
	if item, found := c.cache.Get(key.String()); found {
		if p, ok := item.(models.Prediction); ok {
			c.hitCount.Add(1)
			metrics.RecordCacheLookup("prediction", true)
			return &p
		}
	}
	c.missCount.Add(1)
	metrics.RecordCacheLookup("prediction", false)
	return nil
}

// Set stores a copy of p
func (c *Cache) Set(key CacheKey, p *models.Prediction) {
	if p == nil {
		return
	}
	c.cache.Set(key.String(), *p, c.ttl)
}

// Invalidate drops every entry for symbol
func (c *Cache) Invalidate(symbol string) {
	prefix := strings.ToUpper(symbol) + ":"
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
}

// Clear removes all entries
func (c *Cache) Clear() {
	c.cache.Flush()
}

// Stats returns hits, misses and current size
func (c *Cache) Stats() (hits, misses uint64, size int) {
	return c.hitCount.Load(), c.missCount.Load(), c.cache.ItemCount()
}
