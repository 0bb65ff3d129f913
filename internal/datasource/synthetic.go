package datasource

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/tradesim/internal/models"
)

const syntheticName = "synthetic"

// DefaultSyntheticPrice is the starting price for symbols without a configured base price
const DefaultSyntheticPrice = 100.0

// SyntheticSource produces random-walk bars. It is a fallback for demos and tests, never a market source.
type SyntheticSource struct {
	basePrices map[string]float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticSource creates a synthetic source. basePrices maps symbols to walk start prices.
func NewSyntheticSource(rng *rand.Rand, basePrices map[string]float64) *SyntheticSource {
	if rng == nil {
		rng = NewRand(0)
	}
	prices := make(map[string]float64, len(basePrices))
	for k, v := range basePrices {
		prices[strings.ToUpper(k)] = v
	}
	return &SyntheticSource{basePrices: prices, rng: rng}
}

// Name returns the name of the data source
func (s *SyntheticSource) Name() string {
	return syntheticName
}

// GetHistoricalData walks from the symbol's base price, one bar per calendar day in [start, end)
func (s *SyntheticSource) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Generate(symbol, s.basePrice(symbol), start, end), nil
}

// GetLatestQuote returns the base price dated today
func (s *SyntheticSource) GetLatestQuote(ctx context.Context, symbol string) (models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return models.PricePoint{}, err
	}
	s.mu.Lock()
	volume := 500000 + s.rng.Int63n(1000000)
	s.mu.Unlock()
	return models.PricePoint{
		Date:   time.Now().Format(models.DateLayout),
		Price:  s.basePrice(symbol),
		Volume: volume,
	}, nil
}

// Generate walks ±2% a day from startPrice over [start, end)
func (s *SyntheticSource) Generate(symbol string, startPrice float64, start, end time.Time) []models.PricePoint {
	if startPrice <= 0 {
		startPrice = DefaultSyntheticPrice
	}
	start = truncateDay(start)
	end = truncateDay(end)

	s.mu.Lock()
	defer s.mu.Unlock()

	var bars []models.PricePoint
	price := startPrice
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		price *= 1 + (s.rng.Float64()-0.5)*0.04
		bars = append(bars, models.PricePoint{
			Date:   d.Format(models.DateLayout),
			Price:  price,
			Volume: 500000 + s.rng.Int63n(1000000),
		})
	}
	return bars
}

func (s *SyntheticSource) basePrice(symbol string) float64 {
	if p, ok := s.basePrices[strings.ToUpper(symbol)]; ok && p > 0 {
		return p
	}
	return DefaultSyntheticPrice
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
