package datasource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/models"
)

// ErrCodeCircuitOpen marks requests rejected while the breaker is open
const ErrCodeCircuitOpen = "circuit_open"

// ErrCircuitOpen is carried by errors returned while the breaker is open
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed means requests flow
	CircuitClosed CircuitState = iota
	// CircuitHalfOpen lets one probe through after the cooldown
	CircuitHalfOpen
	// CircuitOpen means requests are rejected
	CircuitOpen
)

// String returns string representation of circuit state
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	case CircuitOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerConfig defines circuit breaker thresholds
type BreakerConfig struct {
	MaxFailures    int
	FailureWindow  time.Duration
	CooldownPeriod time.Duration
}

// DefaultBreakerConfig returns the thresholds used for remote sources
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:    5,
		FailureWindow:  time.Minute,
		CooldownPeriod: 30 * time.Second,
	}
}

// BreakerSource stops calling a failing upstream for a cooldown period once failures pile up.
// Only transport, server and rate-limit failures count; unknown symbols and bad payloads do not.
type BreakerSource struct {
	source       Source
	config       BreakerConfig
	mu           sync.Mutex
	state        CircuitState
	failureCount int
	lastFailure  time.Time
	openedAt     time.Time
	now          func() time.Time
	logger       *logrus.Entry
}

// NewBreakerSource wraps source with a circuit breaker
func NewBreakerSource(source Source, cfg BreakerConfig, logger *logrus.Logger) *BreakerSource {
	if cfg.MaxFailures <= 0 {
		cfg = DefaultBreakerConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &BreakerSource{
		source: source,
		config: cfg,
		now:    time.Now,
		logger: logger.WithField("component", "circuit_breaker").WithField("source", source.Name()),
	}
}

// Name returns the wrapped source's name
func (b *BreakerSource) Name() string {
	return b.source.Name()
}

// GetHistoricalData forwards to the wrapped source unless the circuit is open
func (b *BreakerSource) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	if err := b.allow(); err != nil {
		return nil, err
	}
	bars, err := b.source.GetHistoricalData(ctx, symbol, start, end)
	b.record(err)
	return bars, err
}

// GetLatestQuote forwards to the wrapped source unless the circuit is open
func (b *BreakerSource) GetLatestQuote(ctx context.Context, symbol string) (models.PricePoint, error) {
	if err := b.allow(); err != nil {
		return models.PricePoint{}, err
	}
	quote, err := b.source.GetLatestQuote(ctx, symbol)
	b.record(err)
	return quote, err
}

// State returns the current circuit state
func (b *BreakerSource) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit
func (b *BreakerSource) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionLocked(CircuitClosed, "manual reset")
	b.failureCount = 0
}

func (b *BreakerSource) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitOpen:
		if b.now().Sub(b.openedAt) < b.config.CooldownPeriod {
			return NewDataSourceError(b.source.Name(), ErrCodeCircuitOpen, "upstream temporarily disabled after repeated failures", ErrCircuitOpen)
		}
		b.transitionLocked(CircuitHalfOpen, "cooldown elapsed")
	case CircuitHalfOpen:
		// one probe at a time
		return NewDataSourceError(b.source.Name(), ErrCodeCircuitOpen, "probe request in flight", ErrCircuitOpen)
	}
	return nil
}

func (b *BreakerSource) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !countsAsFailure(err) {
		if b.state == CircuitHalfOpen {
			b.transitionLocked(CircuitClosed, "probe succeeded")
		}
		b.failureCount = 0
		return
	}

	now := b.now()
	if b.state == CircuitHalfOpen {
		b.openedAt = now
		b.transitionLocked(CircuitOpen, "probe failed")
		return
	}

	if now.Sub(b.lastFailure) > b.config.FailureWindow {
		b.failureCount = 0
	}
	b.failureCount++
	b.lastFailure = now

	b.logger.WithFields(logrus.Fields{
		"failure_count": b.failureCount,
		"max_allowed":   b.config.MaxFailures,
		"error":         err.Error(),
	}).Warn("Upstream failure recorded")

	if b.failureCount >= b.config.MaxFailures {
		b.openedAt = now
		b.transitionLocked(CircuitOpen, "max failures exceeded")
	}
}

func (b *BreakerSource) transitionLocked(to CircuitState, reason string) {
	if b.state == to {
		return
	}
	b.logger.WithFields(logrus.Fields{
		"old_state": b.state.String(),
		"new_state": to.String(),
		"reason":    reason,
	}).Warn("Circuit breaker state change")
	b.state = to
}

func countsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch ErrorCode(err) {
	case ErrCodeNotFound, ErrCodeInvalidData:
		return false
	}
	return true
}
