package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Executor runs external operations under the per-kind recovery table, with
// an optional circuit breaker per operation. It logs every handled failure
// into the bounded error log.
type Executor struct {
	cfg    Config
	log    *ErrorLog
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(cfg Config, log *ErrorLog, logger *slog.Logger) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		log:      log,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute retries fn according to the strategy for its classified failure
// kind and reports how many attempts it made. The returned error is the last
// failure once retries are exhausted; the caller converts it into a degraded
// response.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error) (int, error) {
	if fn == nil {
		return 0, fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}

	if !e.cfg.BreakerEnabled {
		return e.executeWithRetry(ctx, op, fn)
	}

	breaker := e.circuitBreaker(op)
	attempts := 0
	_, err := breaker.Execute(func() (any, error) {
		n, retryErr := e.executeWithRetry(ctx, op, fn)
		attempts = n
		return nil, retryErr
	})
	return attempts, err
}

func (e *Executor) executeWithRetry(ctx context.Context, operation string, fn func(context.Context) error) (int, error) {
	var strategy Strategy
	backoff := time.Duration(0)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		err := fn(ctx)
		if err == nil {
			return attempt + 1, nil
		}

		kind, severity := Classify(err)
		if attempt == 0 {
			strategy = e.cfg.strategyFor(kind)
			backoff = strategy.Backoff
		}
		e.log.Append(kind, severity, operation, err, attempt, false)

		retryable := attempt < strategy.MaxRetries &&
			(strategy.ShouldRetry == nil || strategy.ShouldRetry(err))
		if !retryable {
			return attempt + 1, err
		}

		e.logger.Warn("retry_attempt",
			"operation", operation,
			"kind", string(kind),
			"attempt", attempt+1,
			"max_retries", strategy.MaxRetries,
			"backoff_ms", float64(backoff.Microseconds())/1000.0,
			"error", err,
		)

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt + 1, err
			case <-timer.C:
			}
		}
		if strategy.Multiplier > 1 {
			backoff = time.Duration(float64(backoff) * strategy.Multiplier)
		}
	}
}

func (e *Executor) circuitBreaker(operation string) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			e.logger.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
