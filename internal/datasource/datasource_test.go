package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/tradesim/internal/config"
	"github.com/yourusername/tradesim/internal/models"
)

const sampleCSV = `Date,AAA,BBB
2024-01-01,100,50
2024-01-08,107,
2024-01-15,114,60
`

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestCSVSourceInterpolatesWeekdays(t *testing.T) {
	src, err := NewCSVSourceFromReader(strings.NewReader(sampleCSV), NewRand(7), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, src.Symbols())

	bars, err := src.GetHistoricalData(context.Background(), "AAA", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 11)
	require.NoError(t, models.ValidateSeries(bars))

	for i, bar := range bars[:10] {
		ts, err := bar.Time()
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, ts.Weekday())
		assert.NotEqual(t, time.Sunday, ts.Weekday())

		dayOffset := ts.Sub(day("2024-01-01")).Hours() / 24
		line := 100 + dayOffset
		assert.InDelta(t, line, bar.Price, line*0.01+1e-9, "bar %d", i)
		assert.GreaterOrEqual(t, bar.Volume, int64(500000))
		assert.Less(t, bar.Volume, int64(1000000))
	}
	assert.Equal(t, "2024-01-15", bars[10].Date)
	assert.Equal(t, 114.0, bars[10].Price)

	// BBB has no January 8 value, so its single gap spans two weeks.
	bbb, err := src.GetHistoricalData(context.Background(), "bbb", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, bbb, 11)
}

func TestCSVSourceRangeIsInclusive(t *testing.T) {
	src, err := NewCSVSourceFromReader(strings.NewReader(sampleCSV), NewRand(7), quietLogger())
	require.NoError(t, err)

	bars, err := src.GetHistoricalData(context.Background(), "AAA", day("2024-01-03"), day("2024-01-10"))
	require.NoError(t, err)
	var dates []string
	for _, b := range bars {
		dates = append(dates, b.Date)
	}
	assert.Equal(t, []string{"2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08", "2024-01-09", "2024-01-10"}, dates)
}

func TestCSVSourceInterpolatesOnce(t *testing.T) {
	src, err := NewCSVSourceFromReader(strings.NewReader(sampleCSV), NewRand(3), quietLogger())
	require.NoError(t, err)

	first, err := src.GetHistoricalData(context.Background(), "AAA", time.Time{}, time.Time{})
	require.NoError(t, err)
	second, err := src.GetHistoricalData(context.Background(), "AAA", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCSVSourceSeedIsDeterministic(t *testing.T) {
	a, err := NewCSVSourceFromReader(strings.NewReader(sampleCSV), NewRand(11), quietLogger())
	require.NoError(t, err)
	b, err := NewCSVSourceFromReader(strings.NewReader(sampleCSV), NewRand(11), quietLogger())
	require.NoError(t, err)

	barsA, _ := a.GetHistoricalData(context.Background(), "AAA", time.Time{}, time.Time{})
	barsB, _ := b.GetHistoricalData(context.Background(), "AAA", time.Time{}, time.Time{})
	assert.Equal(t, barsA, barsB)
}

func TestCSVSourceUnknownSymbol(t *testing.T) {
	src, err := NewCSVSourceFromReader(strings.NewReader(sampleCSV), NewRand(1), quietLogger())
	require.NoError(t, err)

	bars, err := src.GetHistoricalData(context.Background(), "ZZZ", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, bars)

	_, err = src.GetLatestQuote(context.Background(), "ZZZ")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, ErrorCode(err))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCSVSourceLatestQuote(t *testing.T) {
	src, err := NewCSVSourceFromReader(strings.NewReader(sampleCSV), NewRand(1), quietLogger())
	require.NoError(t, err)

	quote, err := src.GetLatestQuote(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", quote.Date)
	assert.Equal(t, 114.0, quote.Price)
}

func TestCSVSourceRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"no date column", "Symbol,AAA\n2024-01-01,1\n"},
		{"bad date", "Date,AAA\n01/02/2024,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVSourceFromReader(strings.NewReader(tt.content), NewRand(1), quietLogger())
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidData, ErrorCode(err))
		})
	}
}

func TestCSVSourceLoadsBundledData(t *testing.T) {
	src, err := NewCSVSource("../../data/historicalStockData.csv", NewRand(42), quietLogger())
	require.NoError(t, err)
	assert.Contains(t, src.Symbols(), "RELIANCE")

	bars, err := src.GetHistoricalData(context.Background(), "RELIANCE", day("2023-01-01"), day("2023-12-31"))
	require.NoError(t, err)
	assert.Greater(t, len(bars), 200)
	assert.NoError(t, models.ValidateSeries(bars))
}

func TestSyntheticSourceWalk(t *testing.T) {
	src := NewSyntheticSource(NewRand(5), map[string]float64{"tcs": 3500})

	bars, err := src.GetHistoricalData(context.Background(), "TCS", day("2024-01-01"), day("2024-01-11"))
	require.NoError(t, err)
	require.Len(t, bars, 10)
	assert.Equal(t, "2024-01-01", bars[0].Date)
	assert.Equal(t, "2024-01-10", bars[9].Date)

	prev := 3500.0
	for _, bar := range bars {
		ratio := bar.Price / prev
		assert.GreaterOrEqual(t, ratio, 0.98)
		assert.LessOrEqual(t, ratio, 1.02)
		assert.GreaterOrEqual(t, bar.Volume, int64(500000))
		assert.Less(t, bar.Volume, int64(1500000))
		prev = bar.Price
	}

	quote, err := src.GetLatestQuote(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	assert.Equal(t, DefaultSyntheticPrice, quote.Price)
}

func TestSyntheticSourceEmptyRange(t *testing.T) {
	src := NewSyntheticSource(NewRand(5), nil)
	assert.Empty(t, src.Generate("X", 0, day("2024-01-05"), day("2024-01-05")))
	assert.Empty(t, src.Generate("X", 10, day("2024-01-05"), day("2024-01-01")))
}

type countingSource struct {
	historyCalls int
	quoteCalls   int
	err          error
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) GetHistoricalData(_ context.Context, symbol string, _, _ time.Time) ([]models.PricePoint, error) {
	c.historyCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []models.PricePoint{{Date: "2024-01-02", Price: 10, Volume: 1}}, nil
}

func (c *countingSource) GetLatestQuote(_ context.Context, symbol string) (models.PricePoint, error) {
	c.quoteCalls++
	if c.err != nil {
		return models.PricePoint{}, c.err
	}
	return models.PricePoint{Date: "2024-01-02", Price: 10}, nil
}

func TestCachedSourceMemoises(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, time.Minute, quietLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		bars, err := cached.GetHistoricalData(ctx, "AAA", day("2024-01-01"), day("2024-02-01"))
		require.NoError(t, err)
		require.Len(t, bars, 1)
		bars[0].Price = -1 // callers must not corrupt the cache
	}
	assert.Equal(t, 1, inner.historyCalls)

	_, err := cached.GetHistoricalData(ctx, "AAA", day("2024-01-01"), day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, inner.historyCalls)

	bars, err := cached.GetHistoricalData(ctx, "AAA", day("2024-01-01"), day("2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, bars[0].Price)

	for i := 0; i < 2; i++ {
		_, err := cached.GetLatestQuote(ctx, "AAA")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.quoteCalls)
	assert.Equal(t, "counting", cached.Name())

	cached.Flush()
	assert.Equal(t, 0, cached.ItemCount())
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	inner := &countingSource{err: errors.New("boom")}
	cached := NewCachedSource(inner, time.Minute, quietLogger())

	_, err := cached.GetLatestQuote(context.Background(), "AAA")
	require.Error(t, err)
	_, err = cached.GetLatestQuote(context.Background(), "AAA")
	require.Error(t, err)
	assert.Equal(t, 2, inner.quoteCalls)
}

func newTestAlphaVantage(t *testing.T, handler http.HandlerFunc) *AlphaVantageSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.MaxRetries = 0
	httpCfg.RateLimit = 1000
	httpCfg.Timeout = 5 * time.Second
	client := NewRateLimitedHTTPClient(httpCfg, quietLogger())

	return NewAlphaVantageSource(client, AlphaVantageConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		ExchangeSuffix: ".BSE",
		SymbolMap:      map[string]string{"reliance": "AAPL"},
	}, quietLogger())
}

func TestAlphaVantageMapSymbol(t *testing.T) {
	src := NewAlphaVantageSource(nil, AlphaVantageConfig{
		ExchangeSuffix: ".BSE",
		SymbolMap:      map[string]string{"reliance": "aapl"},
	}, nil)

	assert.Equal(t, "AAPL", src.MapSymbol("RELIANCE"))
	assert.Equal(t, "TCS.BSE", src.MapSymbol("tcs"))
	assert.Equal(t, "INFY.NSE", src.MapSymbol("INFY.NSE"))
}

func TestAlphaVantageHistory(t *testing.T) {
	src := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "TIME_SERIES_DAILY", q.Get("function"))
		assert.Equal(t, "TCS.BSE", q.Get("symbol"))
		assert.Equal(t, "full", q.Get("outputsize"))
		assert.Equal(t, "test-key", q.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Meta Data": {"2. Symbol": "TCS.BSE"},
			"Time Series (Daily)": {
				"2024-06-07": {"1. open": "3800.00", "4. close": "3850.55", "5. volume": "120000"},
				"2024-06-06": {"1. open": "3790.00", "4. close": "3801.10", "5. volume": "98000"},
				"2024-05-31": {"1. open": "3700.00", "4. close": "3720.00", "5. volume": "87000"}
			}
		}`))
	})

	bars, err := src.GetHistoricalData(context.Background(), "TCS", day("2024-06-01"), day("2024-06-30"))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-06-06", bars[0].Date)
	assert.InDelta(t, 3801.10, bars[0].Price, 1e-9)
	assert.Equal(t, int64(98000), bars[0].Volume)
	assert.Equal(t, "2024-06-07", bars[1].Date)
}

func TestAlphaVantageQuote(t *testing.T) {
	src := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "189.8400", "06. volume": "53510410", "07. latest trading day": "2024-06-07"}}`))
	})

	quote, err := src.GetLatestQuote(context.Background(), "RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-07", quote.Date)
	assert.InDelta(t, 189.84, quote.Price, 1e-9)
	assert.Equal(t, int64(53510410), quote.Volume)
}

func TestAlphaVantageErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		quote    bool
	}{
		{"error message", http.StatusOK, `{"Error Message": "Invalid API call."}`, ErrCodeNotFound, false},
		{"note", http.StatusOK, `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`, ErrCodeRateLimitExceeded, false},
		{"information", http.StatusOK, `{"Information": "rate limit"}`, ErrCodeRateLimitExceeded, true},
		{"too many requests", http.StatusTooManyRequests, `{}`, ErrCodeRateLimitExceeded, false},
		{"server error", http.StatusInternalServerError, `oops`, ErrCodeServerError, false},
		{"malformed json", http.StatusOK, `{"Time Series (Daily)": [`, ErrCodeInvalidData, false},
		{"bad price", http.StatusOK, `{"Time Series (Daily)": {"2024-06-07": {"4. close": "n/a", "5. volume": "1"}}}`, ErrCodeInvalidData, false},
		{"empty quote", http.StatusOK, `{"Global Quote": {}}`, ErrCodeNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			var err error
			if tt.quote {
				_, err = src.GetLatestQuote(context.Background(), "TCS")
			} else {
				_, err = src.GetHistoricalData(context.Background(), "TCS", time.Time{}, time.Time{})
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ErrorCode(err))
		})
	}
}

func TestNewSource(t *testing.T) {
	logger := quietLogger()

	src, err := NewSource(config.DataSourceConfig{Type: "synthetic", Seed: 1}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SyntheticSource{}, src)

	src, err = NewSource(config.DataSourceConfig{Type: "synthetic", CacheTTLSeconds: 60}, logger)
	require.NoError(t, err)
	assert.IsType(t, &CachedSource{}, src)
	assert.Equal(t, "synthetic", src.Name())

	src, err = NewSource(config.DataSourceConfig{Type: "csv", CSVPath: "../../data/historicalStockData.csv"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())

	_, err = NewSource(config.DataSourceConfig{Type: "csv", CSVPath: "missing.csv"}, logger)
	assert.Error(t, err)

	_, err = NewSource(config.DataSourceConfig{Type: "alphavantage", BaseURL: "https://www.alphavantage.co/query"}, logger)
	assert.Error(t, err)

	src, err = NewSource(config.DataSourceConfig{Type: "alphavantage", BaseURL: "https://www.alphavantage.co/query", APIKey: "k", TimeoutSeconds: 5, RateLimit: 1}, logger)
	require.NoError(t, err)
	assert.Equal(t, "alphavantage", src.Name())

	_, err = NewSource(config.DataSourceConfig{Type: "bloomberg"}, logger)
	assert.Error(t, err)
}
