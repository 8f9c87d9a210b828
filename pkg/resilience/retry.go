package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls the retry loop.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// RetryableErrors, when non-empty, restricts retries to these errors.
	RetryableErrors []error

	// RetryableChecker, when set, overrides RetryableErrors entirely.
	RetryableChecker func(err error) bool
}

// DefaultRetryConfig returns sensible defaults for transient failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2,
	}
}

// Retry runs op up to cfg.MaxAttempts times with exponential backoff.
// Context cancellation and open-breaker errors are never retried.
func Retry(ctx context.Context, cfg RetryConfig, op Operation) (interface{}, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 2
	}

	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(cfg, err) || attempt == cfg.MaxAttempts {
			return nil, lastErr
		}

		select {
		case <-ctx.Done():
			return nil, lastErr
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return nil, lastErr
}

func retryable(cfg RetryConfig, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCircuitOpen) {
		return false
	}

	if cfg.RetryableChecker != nil {
		return cfg.RetryableChecker(err)
	}

	if len(cfg.RetryableErrors) > 0 {
		for _, candidate := range cfg.RetryableErrors {
			if errors.Is(err, candidate) {
				return true
			}
		}
		return false
	}

	return true
}
