package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "datedreader/pkg/errors"
	"datedreader/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// NewConfig returns a config with exponential backoff starting at baseDelay.
// maxAttempts below 1 means a single attempt.
func NewConfig(maxAttempts int, baseDelay time.Duration, log logger.Logger) *Config {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := DefaultExponentialBackoff()
	if baseDelay > 0 {
		backoff.BaseDelay = baseDelay
	}
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      log,
	}
}

// DefaultRetryIf is the default retry predicate. Typed reader errors
// describe the data, not the transport, and are never retried.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var typed *errs.Error
	if errors.As(err, &typed) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// IsRetryable checks if an error should be retried based on HTTP status codes
func IsRetryable(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 408, 429:
		return true
	case 500, 502, 503, 504:
		return true
	default:
		return statusCode > 500
	}
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = NewConfig(1, 0, nil)
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}

	var lastErr error
	attempt := 0

	for {
		attempt++

		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !retryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		// No point sleeping before an attempt that will not happen
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			continue
		}

		delay := backoff.NextDelay(attempt)

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  err.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}
