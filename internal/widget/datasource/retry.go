package datasource

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type retryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
}

// retry runs fn until it succeeds, fails permanently or attempts run out.
// The delay doubles after each failed attempt.
func (a *Adapter) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	delay := a.retryPolicy.initialDelay

	for attempt := 1; attempt <= a.retryPolicy.maxAttempts; attempt++ {
		if attempt > 1 {
			a.log.Debug("retrying remote call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	a.log.Warn("remote call failed after retries",
		zap.String("op", op),
		zap.Int("attempts", a.retryPolicy.maxAttempts),
		zap.Error(lastErr),
	)
	return lastErr
}

// isRetryable is true for 5xx, 429 and transient transport failures. Only
// idempotent calls go through retry, so a 500 is safe to repeat.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	switch remoteErr.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case 0:
		if remoteErr.Err == nil {
			return false
		}
	default:
		return remoteErr.StatusCode >= http.StatusInternalServerError
	}

	msg := strings.ToLower(remoteErr.Err.Error())
	for _, pattern := range []string{
		"eof",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"broken pipe",
		"network is unreachable",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
