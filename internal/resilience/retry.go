package resilience

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"jobpilot/internal/errors"
)

// RetryPolicy controls Retry
type RetryPolicy struct {
	Operation  string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Retryable decides whether an error is worth another attempt. Nil
	// retries nothing.
	Retryable func(error) bool
	Logger    *errors.Logger
}

// Backoff returns the exponential delay before the given retry attempt
// (1-based) with up to 10% jitter, capped at limit
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * base
	if jitterMax := int64(float64(delay) * 0.1); jitterMax > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	if limit > 0 && delay > limit {
		delay = limit
	}
	return delay
}

// Retry calls fn until it succeeds, returns a non-retryable error or the
// retry budget is spent
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if p.Logger != nil {
				p.Logger.Warn("Retrying operation",
					"operation", p.Operation,
					"attempt", attempt,
					"max_retries", p.MaxRetries,
					"error", lastErr.Error())
			}

			select {
			case <-time.After(Backoff(attempt, base, maxDelay)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 && p.Logger != nil {
				p.Logger.Info("Operation succeeded after retry",
					"operation", p.Operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if p.Retryable == nil || !p.Retryable(err) {
			break
		}
	}

	return zero, fmt.Errorf("operation '%s' failed: %w", p.Operation, lastErr)
}
