package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// HTTPError carries a provider HTTP status so the executor can classify it.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// Executor wraps provider calls with bounded exponential backoff. Every
// external call in the pipeline goes through the same executor so retry
// policy lives in one place.
type Executor struct {
	MaxRetries   uint64
	InitialDelay time.Duration
	logger       *zap.Logger
}

// NewExecutor creates an executor. maxRetries is the number of retries after
// the first attempt; a call is made at most maxRetries+1 times.
func NewExecutor(maxRetries int, initialDelay time.Duration, logger *zap.Logger) *Executor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Executor{
		MaxRetries:   uint64(maxRetries),
		InitialDelay: initialDelay,
		logger:       logger,
	}
}

// Run executes op, retrying transient failures with jittered exponential
// backoff. Permanent failures propagate immediately. When retries are
// exhausted the operation's own last error is returned unchanged.
func (e *Executor) Run(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempt := 0

	wrapped := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		if e.logger != nil {
			e.logger.Warn("transient provider failure, will retry",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.InitialDelay
	bo.Multiplier = 2
	// RandomizationFactor stays at the library default: jitter breaks up
	// synchronized retry storms when a whole batch fails at once.
	bo.MaxElapsedTime = 0

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, e.MaxRetries), ctx))
}

// IsTransient reports whether an error is worth retrying: upstream 5xx,
// rate limiting, network-layer failures, and known vendor transient codes.
// Everything else (4xx, malformed input, auth failure) is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == 429
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "unexpected eof") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Vendor transient failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
