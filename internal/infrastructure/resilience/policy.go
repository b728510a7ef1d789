package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/finassist/qa-engine/internal/core/domain"
)

// Strategy is one row of the recovery table: how many retries a failure
// kind earns, the starting backoff, and a predicate gating each retry.
type Strategy struct {
	MaxRetries  int
	Backoff     time.Duration
	Multiplier  float64
	ShouldRetry func(error) bool
}

type Config struct {
	Strategies map[domain.ErrorKind]Strategy

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		Strategies: map[domain.ErrorKind]Strategy{
			domain.ErrorKindNetwork: {
				MaxRetries:  2,
				Backoff:     500 * time.Millisecond,
				Multiplier:  2.0,
				ShouldRetry: retryUnlessCanceled,
			},
			domain.ErrorKindAPI: {
				MaxRetries:  1,
				Backoff:     time.Second,
				Multiplier:  2.0,
				ShouldRetry: retryableAPIError,
			},
			domain.ErrorKindCache:   {MaxRetries: 0},
			domain.ErrorKindSearch:  {MaxRetries: 0},
			domain.ErrorKindParsing: {MaxRetries: 0},
			domain.ErrorKindSystem: {
				MaxRetries:  1,
				Backoff:     250 * time.Millisecond,
				Multiplier:  2.0,
				ShouldRetry: retryUnlessCanceled,
			},
		},

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.Strategies == nil {
		out.Strategies = def.Strategies
	}
	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}

func (c Config) strategyFor(kind domain.ErrorKind) Strategy {
	if s, ok := c.Strategies[kind]; ok {
		return s
	}
	return Strategy{}
}

func retryUnlessCanceled(err error) bool {
	return !errors.Is(err, context.Canceled)
}

func retryableAPIError(err error) bool {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
