// pkg/store/retry.go
package store

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds the retry-with-backoff loop used for transient database
// failures. The delay doubles per attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy caps retries at 3 attempts starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// IsTransient reports whether an error is worth retrying: dropped or refused
// connections, SSL resets, timeouts. Anything else is surfaced immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"ssl",
		"timeout",
		"deadline",
		"temporary",
		"eof",
		"try again",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withRetry runs fn up to policy.MaxAttempts times, backing off between
// attempts, retrying only transient errors. The last error is returned when
// the cap is reached.
func withRetry(ctx context.Context, logger *zap.Logger, policy RetryPolicy, op string, fn func() error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	delay := policy.BaseDelay

	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == policy.MaxAttempts {
			return err
		}
		logger.Warn("Retrying after transient database error",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
