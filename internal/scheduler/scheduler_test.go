package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/tradesim/internal/models"
)

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) GetLatestQuote(_ context.Context, symbol string) (models.PricePoint, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return models.PricePoint{}, errors.New("no quote")
	}
	return models.PricePoint{Date: "2024-06-28", Price: price, Volume: 1}, nil
}

type fakeForecaster struct {
	mu     sync.Mutex
	stocks []models.Stock
}

func (f *fakeForecaster) GenerateMultiplePredictions(_ context.Context, stock models.Stock) ([]*models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stocks = append(f.stocks, stock)
	return []*models.Prediction{{StockSymbol: stock.Symbol, Days: 1, PredictedPrice: stock.Price}}, nil
}

func (f *fakeForecaster) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stocks)
}

type recordingInvalidator struct {
	symbols []string
}

func (r *recordingInvalidator) Invalidate(symbol string) {
	r.symbols = append(r.symbols, symbol)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestScheduler() (*Scheduler, *fakeForecaster, *recordingInvalidator) {
	forecaster := &fakeForecaster{}
	invalidator := &recordingInvalidator{}
	quotes := &fakeQuotes{prices: map[string]float64{"TCS": 3500, "INFY": 1500}}
	return NewScheduler(forecaster, quotes, invalidator, quietLogger()), forecaster, invalidator
}

func TestRefreshPredictions(t *testing.T) {
	s, forecaster, invalidator := newTestScheduler()

	summary := s.RefreshPredictions(context.Background(), []string{"TCS", "MISSING", "INFY"})
	assert.Equal(t, 2, summary.Refreshed)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Errors, "MISSING")
	assert.Contains(t, summary.String(), "refreshed=2 failed=1")

	require.Len(t, forecaster.stocks, 2)
	assert.Equal(t, models.Stock{Symbol: "TCS", Price: 3500}, forecaster.stocks[0])
	assert.Equal(t, []string{"TCS", "INFY"}, invalidator.symbols)

	latest, ok := s.Latest("tcs")
	require.True(t, ok)
	assert.Equal(t, 3500.0, latest[0].PredictedPrice)

	_, ok = s.Latest("MISSING")
	assert.False(t, ok)
}

func TestRefreshStopsOnCancelledContext(t *testing.T) {
	s, forecaster, _ := newTestScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := s.RefreshPredictions(ctx, []string{"TCS", "INFY"})
	assert.Equal(t, 0, summary.Refreshed)
	assert.Equal(t, 2, summary.Failed)
	assert.ErrorIs(t, summary.Errors["TCS"], context.Canceled)
	assert.Zero(t, forecaster.calls())
}

func TestScheduleValidation(t *testing.T) {
	s, _, _ := newTestScheduler()

	assert.Error(t, s.SchedulePredictionRefresh("not a cron", []string{"TCS"}))
	assert.Error(t, s.SchedulePredictionRefresh("@every 1m", nil))
	assert.Error(t, s.Start(), "no jobs scheduled")

	require.NoError(t, s.SchedulePredictionRefresh("@every 1m", []string{"TCS"}))
	assert.Len(t, s.Entries(), 1)
}

func TestSchedulerLifecycle(t *testing.T) {
	s, _, _ := newTestScheduler()
	require.NoError(t, s.SchedulePredictionRefresh("@every 1h", []string{"TCS"}))

	assert.True(t, s.GetNextRun().IsZero())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.SchedulePredictionRefresh("@every 1m", []string{"INFY"}))
	assert.Error(t, s.RemoveJob(s.Entries()[0].ID))

	next := s.GetNextRun()
	assert.False(t, next.IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, 5*time.Second)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())

	id := s.Entries()[0].ID
	require.NoError(t, s.RemoveJob(id))
	assert.Empty(t, s.Entries())
}

func TestScheduledJobRuns(t *testing.T) {
	s, forecaster, _ := newTestScheduler()
	require.NoError(t, s.SchedulePredictionRefresh("@every 1s", []string{"INFY"}))
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		_, ok := s.Latest("INFY")
		return ok
	}, 5*time.Second, 50*time.Millisecond)
	assert.Positive(t, forecaster.calls())
}
