package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/datasource"
	"github.com/yourusername/tradesim/internal/models"
)

// Forecaster produces predictions for every configured horizon
type Forecaster interface {
	GenerateMultiplePredictions(ctx context.Context, stock models.Stock) ([]*models.Prediction, error)
}

// Invalidator drops cached predictions for a symbol
type Invalidator interface {
	Invalidate(symbol string)
}

// RefreshSummary describes one refresh pass over a watchlist
type RefreshSummary struct {
	Refreshed int
	Failed    int
	Errors    map[string]error
	Duration  time.Duration
}

func (s RefreshSummary) String() string {
	return fmt.Sprintf("refreshed=%d failed=%d duration=%s", s.Refreshed, s.Failed, s.Duration.Round(time.Millisecond))
}

// Scheduler manages scheduled prediction refresh jobs
type Scheduler struct {
	cron            *cron.Cron
	forecaster      Forecaster
	quotes          datasource.QuoteSource
	invalidator     Invalidator
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	latest          map[string][]*models.Prediction
	gracefulTimeout time.Duration
	jobTimeout      time.Duration
}

// NewScheduler creates a new scheduler. invalidator may be nil.
func NewScheduler(forecaster Forecaster, quotes datasource.QuoteSource, invalidator Invalidator, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		forecaster:      forecaster,
		quotes:          quotes,
		invalidator:     invalidator,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		latest:          make(map[string][]*models.Prediction),
		gracefulTimeout: 30 * time.Second,
		jobTimeout:      5 * time.Minute,
	}
}

// SchedulePredictionRefresh refreshes predictions for symbols on the cron expression
func (s *Scheduler) SchedulePredictionRefresh(cronExpression string, symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to refresh")
	}
	watchlist := append([]string(nil), symbols...)

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		s.logger.WithField("symbols", strings.Join(watchlist, ",")).Info("Starting scheduled prediction refresh")
		summary := s.RefreshPredictions(ctx, watchlist)
		entry := s.logger.WithFields(logrus.Fields{
			"refreshed": summary.Refreshed,
			"failed":    summary.Failed,
		})
		if summary.Failed > 0 {
			entry.Warn("Scheduled prediction refresh completed with failures")
		} else {
			entry.Info("Scheduled prediction refresh completed")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled prediction refresh job")

	return nil
}

// RefreshPredictions regenerates the multi-horizon predictions for each symbol from its latest quote.
// A failing symbol does not stop the others.
func (s *Scheduler) RefreshPredictions(ctx context.Context, symbols []string) RefreshSummary {
	start := time.Now()
	summary := RefreshSummary{Errors: make(map[string]error)}

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			summary.Failed++
			summary.Errors[symbol] = ctx.Err()
			continue
		}
		predictions, err := s.refresh(ctx, symbol)
		if err != nil {
			summary.Failed++
			summary.Errors[symbol] = err
			s.logger.WithField("symbol", symbol).WithError(err).Warn("Prediction refresh failed")
			continue
		}

		s.mu.Lock()
		s.latest[strings.ToUpper(symbol)] = predictions
		s.mu.Unlock()
		summary.Refreshed++
	}

	summary.Duration = time.Since(start)
	return summary
}

func (s *Scheduler) refresh(ctx context.Context, symbol string) ([]*models.Prediction, error) {
	quote, err := s.quotes.GetLatestQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest quote: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(symbol)
	}
	return s.forecaster.GenerateMultiplePredictions(ctx, models.Stock{Symbol: symbol, Price: quote.Price})
}

// Latest returns the most recent predictions refreshed for symbol
func (s *Scheduler) Latest(symbol string) ([]*models.Prediction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.latest[strings.ToUpper(symbol)]
	return p, ok
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs to finish, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	// Running jobs take the lock in RefreshPredictions, so wait without holding it.
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.WithField("job_id", jobID).Info("Removed job")

	return nil
}
