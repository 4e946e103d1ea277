package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts       int           // Maximum number of attempts
	InitialBackoff    time.Duration // Initial backoff duration
	MaxBackoff        time.Duration // Maximum backoff duration
	BackoffMultiplier float64       // Multiplier for exponential backoff
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// IsRetryableError decides whether a failure is worth retrying
type IsRetryableError func(error) bool

// Retry executes a function with exponential backoff. A nil isRetryable
// retries every failure up to MaxAttempts.
func Retry(fn RetryableFunc, config *RetryConfig, isRetryable IsRetryableError) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if isRetryable != nil && !isRetryable(err) {
			return err
		}

		if attempt < config.MaxAttempts-1 {
			time.Sleep(backoff)
			backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	return lastErr
}

// HTTPStatusError carries a non-2xx API response status so the retry
// policy can tell transient server failures from client errors.
type HTTPStatusError struct {
	Service string
	Code    int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d", e.Service, e.Code)
}

// IsRetryableNetworkError checks if an error is a retryable network error.
// Server-side HTTP failures (5xx) and throttling (429) are retryable;
// other status codes are not.
func IsRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	errStr := strings.ToLower(err.Error())
	for _, probe := range []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"transport is closing",
		"unavailable",
		"network is unreachable",
		"no route to host",
		"deadline exceeded",
		"timeout",
		"i/o timeout",
		"resource exhausted",
		"too many connections",
		"rate limit",
	} {
		if strings.Contains(errStr, probe) {
			return true
		}
	}
	return false
}
