// Package resilience provides fault tolerance patterns
package resilience

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

// Retry configuration constants
const (
	DefaultMaxRetries   = 3
	DefaultBaseDelay    = 500 * time.Millisecond
	DefaultMaxDelay     = 10 * time.Second
	DefaultJitterFactor = 0.2 // 20% jitter
)

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
	// Schedule, when set, fixes the delay before each retry attempt and
	// overrides exponential backoff. Attempts beyond its length reuse the
	// last entry.
	Schedule    []time.Duration
	IsRetryable func(error) bool
}

// DefaultRetryConfig returns standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   DefaultMaxRetries,
		BaseDelay:    DefaultBaseDelay,
		MaxDelay:     DefaultMaxDelay,
		JitterFactor: DefaultJitterFactor,
		IsRetryable:  IsRetryableError,
	}
}

// InsightRetryConfig returns the fixed schedule used for live insight
// generation: three retries at 1s, 2s, 4s, everything retryable.
func InsightRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  3,
		Schedule:    []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		IsRetryable: func(error) bool { return true },
	}
}

// IsRetryableError checks whether an error is worth retrying. Structured
// provider errors carry their own retryability; anything else is treated
// as a transient network failure.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*apperrors.AppError); ok {
		return apperrors.IsRetryable(appErr)
	}
	return true
}

// IsRetryableStatus reports whether a provider HTTP status is transient.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusRequestTimeout,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return status >= 500
	}
}

// Retry executes fn with bounded retries. Returns last error if all retries fail.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if !cfg.IsRetryable(lastErr) || attempt == cfg.MaxRetries {
			return lastErr
		}

		delay := cfg.delay(attempt)
		slog.Debug("retrying after error", "attempt", attempt+1, "max", cfg.MaxRetries, "delay", delay, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// delay returns the pause before the retry following the given attempt.
func (c RetryConfig) delay(attempt int) time.Duration {
	if len(c.Schedule) > 0 {
		if attempt >= len(c.Schedule) {
			attempt = len(c.Schedule) - 1
		}
		return c.Schedule[attempt]
	}

	delay := c.BaseDelay << min(attempt, 6) // Cap shift to prevent overflow
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	jitter := float64(delay) * c.JitterFactor * (rand.Float64() - 0.5)
	return time.Duration(float64(delay) + jitter)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if len(c.Schedule) == 0 {
		if c.BaseDelay <= 0 {
			c.BaseDelay = DefaultBaseDelay
		}
		if c.MaxDelay <= 0 {
			c.MaxDelay = DefaultMaxDelay
		}
		if c.JitterFactor <= 0 {
			c.JitterFactor = DefaultJitterFactor
		}
	}
	if c.IsRetryable == nil {
		c.IsRetryable = IsRetryableError
	}
	return c
}
