// Package resilience provides fault tolerance patterns for external service calls.
package resilience

import (
	"context"
	"time"
)

// RetryConfig controls Retry. Delay grows linearly: BaseDelay * attempt.
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	// ShouldRetry decides whether an error is transient. Nil retries every error.
	ShouldRetry func(error) bool
}

// EventualConsistency is tuned for resources that were just created in a remote
// store and may not be readable yet (8 attempts, 350ms * attempt).
func EventualConsistency(shouldRetry func(error) bool) RetryConfig {
	return RetryConfig{
		Attempts:    8,
		BaseDelay:   350 * time.Millisecond,
		ShouldRetry: shouldRetry,
	}
}

// Retry runs fn until it succeeds, returns a non-retryable error, the attempts are
// exhausted or ctx is done. The last error is returned.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(cfg.BaseDelay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
