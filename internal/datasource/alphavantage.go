package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/metrics"
	"github.com/yourusername/tradesim/internal/models"
)

const alphaVantageName = "alphavantage"

// AlphaVantageConfig configures the Alpha Vantage adapter
type AlphaVantageConfig struct {
	BaseURL        string
	APIKey         string
	ExchangeSuffix string            // appended to unmapped symbols without a listing suffix, e.g. ".BSE"
	SymbolMap      map[string]string // dashboard symbol to provider symbol
}

// AlphaVantageSource implements Source over the Alpha Vantage query API
type AlphaVantageSource struct {
	httpClient *RateLimitedHTTPClient
	cfg        AlphaVantageConfig
	symbolMap  map[string]string
	logger     *logrus.Entry
}

type avDailyResponse struct {
	ErrorMessage string                `json:"Error Message"`
	Note         string                `json:"Note"`
	Information  string                `json:"Information"`
	Series       map[string]avDailyBar `json:"Time Series (Daily)"`
}

type avDailyBar struct {
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avQuoteResponse struct {
	ErrorMessage string  `json:"Error Message"`
	Note         string  `json:"Note"`
	Information  string  `json:"Information"`
	Quote        avQuote `json:"Global Quote"`
}

type avQuote struct {
	Symbol           string `json:"01. symbol"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
}

// NewAlphaVantageSource creates a new Alpha Vantage client
func NewAlphaVantageSource(httpClient *RateLimitedHTTPClient, cfg AlphaVantageConfig, logger *logrus.Logger) *AlphaVantageSource {
	if logger == nil {
		logger = logrus.New()
	}
	symbolMap := make(map[string]string, len(cfg.SymbolMap))
	for k, v := range cfg.SymbolMap {
		symbolMap[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return &AlphaVantageSource{
		httpClient: httpClient,
		cfg:        cfg,
		symbolMap:  symbolMap,
		logger:     logger.WithField("component", "datasource").WithField("source", alphaVantageName),
	}
}

// Name returns the name of the data source
func (s *AlphaVantageSource) Name() string {
	return alphaVantageName
}

// MapSymbol translates a dashboard symbol into the provider's listing symbol
func (s *AlphaVantageSource) MapSymbol(symbol string) string {
	upper := strings.ToUpper(symbol)
	if mapped, ok := s.symbolMap[upper]; ok {
		return mapped
	}
	if s.cfg.ExchangeSuffix != "" && !strings.Contains(upper, ".") {
		return upper + s.cfg.ExchangeSuffix
	}
	return upper
}

// GetHistoricalData fetches TIME_SERIES_DAILY and returns the bars within [start, end]
func (s *AlphaVantageSource) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	var body avDailyResponse
	if err := s.query(ctx, "history", url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {s.MapSymbol(symbol)},
		"outputsize": {"full"},
	}, &body); err != nil {
		return nil, err
	}
	if err := s.apiError(body.ErrorMessage, body.Note, body.Information); err != nil {
		return nil, err
	}

	bars := make([]models.PricePoint, 0, len(body.Series))
	for date, raw := range body.Series {
		if !inRange(date, start, end) {
			continue
		}
		bar, err := parseBar(date, raw.Close, raw.Volume)
		if err != nil {
			return nil, NewDataSourceError(alphaVantageName, ErrCodeInvalidData, fmt.Sprintf("bad bar for %s on %s", symbol, date), err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	s.logger.WithFields(logrus.Fields{"symbol": symbol, "bars": len(bars)}).Debug("Fetched daily series")
	return bars, nil
}

// GetLatestQuote fetches GLOBAL_QUOTE for the symbol
func (s *AlphaVantageSource) GetLatestQuote(ctx context.Context, symbol string) (models.PricePoint, error) {
	var body avQuoteResponse
	if err := s.query(ctx, "quote", url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {s.MapSymbol(symbol)},
	}, &body); err != nil {
		return models.PricePoint{}, err
	}
	if err := s.apiError(body.ErrorMessage, body.Note, body.Information); err != nil {
		return models.PricePoint{}, err
	}
	if body.Quote.Price == "" {
		return models.PricePoint{}, NewDataSourceError(alphaVantageName, ErrCodeNotFound, "no quote data for "+symbol, ErrNotFound)
	}

	bar, err := parseBar(body.Quote.LatestTradingDay, body.Quote.Price, body.Quote.Volume)
	if err != nil {
		return models.PricePoint{}, NewDataSourceError(alphaVantageName, ErrCodeInvalidData, "bad quote for "+symbol, err)
	}
	return bar, nil
}

func (s *AlphaVantageSource) query(ctx context.Context, operation string, params url.Values, out any) error {
	params.Set("apikey", s.cfg.APIKey)
	endpoint := s.cfg.BaseURL + "?" + params.Encode()

	started := time.Now()
	status := "error"
	defer func() {
		metrics.RecordDataSourceRequest(alphaVantageName, operation, status, time.Since(started).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return NewDataSourceError(alphaVantageName, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		return NewDataSourceError(alphaVantageName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		status = "rate_limited"
		return NewDataSourceError(alphaVantageName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewDataSourceError(alphaVantageName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewDataSourceError(alphaVantageName, ErrCodeInvalidData, "failed to parse response", err)
	}
	status = "success"
	return nil
}

// apiError maps the provider's in-band error fields. Alpha Vantage answers throttled calls with HTTP 200 and a Note.
func (s *AlphaVantageSource) apiError(errorMessage, note, information string) error {
	switch {
	case errorMessage != "":
		s.logger.Warnf("API error: %s", errorMessage)
		return NewDataSourceError(alphaVantageName, ErrCodeNotFound, errorMessage, ErrNotFound)
	case note != "":
		s.logger.Warnf("API limit: %s", note)
		return NewDataSourceError(alphaVantageName, ErrCodeRateLimitExceeded, note, ErrRateLimitExceeded)
	case information != "":
		s.logger.Warnf("API limit: %s", information)
		return NewDataSourceError(alphaVantageName, ErrCodeRateLimitExceeded, information, ErrRateLimitExceeded)
	}
	return nil
}

func parseBar(date, price, volume string) (models.PricePoint, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.PricePoint{}, fmt.Errorf("%w: date %q", ErrInvalidData, date)
	}
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil || !p.IsPositive() {
		return models.PricePoint{}, fmt.Errorf("%w: price %q", ErrInvalidData, price)
	}
	var vol int64
	if volume != "" {
		vol, err = strconv.ParseInt(strings.TrimSpace(volume), 10, 64)
		if err != nil || vol < 0 {
			return models.PricePoint{}, fmt.Errorf("%w: volume %q", ErrInvalidData, volume)
		}
	}
	return models.PricePoint{Date: date, Price: p.InexactFloat64(), Volume: vol}, nil
}
