// Package prediction combines indicator-driven sub-models into a direction, a confidence and a target price.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/logger"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
)

const (
	// MinHistory is the number of bars below which predictions are degraded
	MinHistory = 50
	// historyWindow is how far back history is requested
	historyWindow = 365 * 24 * time.Hour
	noiseRange    = 0.02
	degradedRange = 0.1
	priceFloor    = 0.5
)

// Horizons are the forecast lengths, in days, produced by GenerateMultiplePredictions
var Horizons = []int{1, 7, 30}

// NoiseSource supplies uniform values in [0, 1). *rand.Rand satisfies it.
type NoiseSource interface {
	Float64() float64
}

// Config controls one prediction
type Config struct {
	Days       int  `json:"days"`
	Confidence int  `json:"confidence"`
	UseML      bool `json:"use_ml"` // recorded and part of the cache key; the trend term always applies
}

// Validate checks the prediction config
func (c Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("%w: days must be positive, got %d", models.ErrInvalidParameters, c.Days)
	}
	if c.Confidence < 0 || c.Confidence > 100 {
		return fmt.Errorf("%w: confidence must be between 0 and 100, got %d", models.ErrInvalidParameters, c.Confidence)
	}
	return nil
}

// Predictor generates predictions from a historical source
type Predictor struct {
	source datasource.HistoricalSource
	cache  *Cache
	noise  NoiseSource
	mu     sync.Mutex
	now    func() time.Time
	logger *logger.PredictionLogger
}

// NewPredictor creates a predictor. cache may be nil to disable caching; a nil noise source uses a time-seeded one.
func NewPredictor(source datasource.HistoricalSource, cache *Cache, noise NoiseSource, log *logrus.Logger) (*Predictor, error) {
	if source == nil {
		return nil, errors.New("prediction: historical source is required")
	}
	if noise == nil {
		noise = datasource.NewRand(0)
	}
	if log == nil {
		log = logrus.New()
	}
	return &Predictor{
		source: source,
		cache:  cache,
		noise:  noise,
		now:    time.Now,
		logger: logger.NewPredictionLogger(log),
	}, nil
}

// GeneratePrediction forecasts stock's price cfg.Days ahead. prior is an optional backtest of the same stock;
// a strong prior return boosts the ensemble's confidence.
func (p *Predictor) GeneratePrediction(ctx context.Context, stock models.Stock, cfg Config, prior *models.BacktestResult) (*models.Prediction, error) {
	start := time.Now()
	if stock.Symbol == "" {
		return nil, fmt.Errorf("%w: stock symbol is required", models.ErrInvalidParameters)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := p.now()
	key := CacheKey{Symbol: stock.Symbol, Days: cfg.Days, UseML: cfg.UseML, Date: now.Format(models.DateLayout)}
	if p.cache != nil && prior == nil {
		if cached := p.cache.Get(key); cached != nil {
			p.logger.LogPrediction(cached, true, msSince(start))
			return cached, nil
		}
	}

	bars, err := p.source.GetHistoricalData(ctx, stock.Symbol, now.Add(-historyWindow), now)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if datasource.ErrorCode(err) != datasource.ErrCodeNotFound {
			p.logger.LogPredictionError(stock.Symbol, err)
			return nil, fmt.Errorf("%w: %s: %w", models.ErrDataUnavailable, stock.Symbol, err)
		}
		bars = nil
	}

	current := stock.Price
	if current <= 0 && len(bars) > 0 {
		current = bars[len(bars)-1].Price
	}
	if current <= 0 {
		err := fmt.Errorf("%w: %s has no current price", models.ErrDataUnavailable, stock.Symbol)
		p.logger.LogPredictionError(stock.Symbol, err)
		return nil, err
	}

	var prediction *models.Prediction
	mode := "ensemble"
	if len(bars) < MinHistory {
		p.logger.LogDegraded(stock.Symbol, len(bars))
		prediction = p.degraded(stock.Symbol, current, cfg, now)
		mode = "degraded"
	} else {
		prediction = p.ensemble(stock.Symbol, current, bars, cfg, prior, now)
	}

	metrics.RecordPrediction(string(prediction.PredictedDirection), mode, prediction.Confidence)
	if p.cache != nil && prior == nil {
		p.cache.Set(key, prediction)
	}
	p.logger.LogPrediction(prediction, false, msSince(start))
	return prediction, nil
}

// GenerateMultiplePredictions forecasts every horizon in Horizons
func (p *Predictor) GenerateMultiplePredictions(ctx context.Context, stock models.Stock) ([]*models.Prediction, error) {
	out := make([]*models.Prediction, 0, len(Horizons))
	for _, days := range Horizons {
		prediction, err := p.GeneratePrediction(ctx, stock, Config{Days: days, Confidence: 80, UseML: true}, nil)
		if err != nil {
			return nil, fmt.Errorf("%d day horizon: %w", days, err)
		}
		out = append(out, prediction)
	}
	return out, nil
}

func (p *Predictor) ensemble(symbol string, current float64, bars []models.PricePoint, cfg Config, prior *models.BacktestResult, now time.Time) *models.Prediction {
	prices, _, volumes := models.Series(bars)
	votes := Votes(prices, volumes)
	outcome := Combine(votes, prior)
	p.logger.LogVotes(symbol, voteSummary(votes), outcome.UpScore, outcome.DownScore)

	change := trendSlope(prices)*float64(cfg.Days) + directionBias(outcome.Direction) + (p.uniform()-0.5)*noiseRange

	return &models.Prediction{
		StockSymbol:        symbol,
		Date:               now.Format(models.DateLayout),
		TargetDate:         now.AddDate(0, 0, cfg.Days).Format(models.DateLayout),
		Days:               cfg.Days,
		PredictedPrice:     floorPrice(current*(1+change), current),
		PredictedDirection: outcome.Direction,
		Confidence:         outcome.Confidence,
	}
}

func (p *Predictor) degraded(symbol string, current float64, cfg Config, now time.Time) *models.Prediction {
	direction := models.DirectionDown
	if p.uniform() > 0.5 {
		direction = models.DirectionUp
	}
	change := (p.uniform() - 0.5) * degradedRange
	confidence := int(math.Floor(p.uniform()*30)) + 50

	return &models.Prediction{
		StockSymbol:        symbol,
		Date:               now.Format(models.DateLayout),
		TargetDate:         now.AddDate(0, 0, cfg.Days).Format(models.DateLayout),
		Days:               cfg.Days,
		PredictedPrice:     floorPrice(current*(1+change), current),
		PredictedDirection: direction,
		Confidence:         confidence,
		Degraded:           true,
	}
}

func (p *Predictor) uniform() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.noise.Float64()
}

// trendSlope is the regression slope of prices as a fraction of their mean, per bar
func trendSlope(prices []float64) float64 {
	mean := indicator.Mean(prices)
	if mean <= 0 {
		return 0
	}
	return indicator.LinearRegression(prices).Slope / mean
}

func floorPrice(price, current float64) float64 {
	return math.Max(price, current*priceFloor)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
