package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"execsummary-backend/internal/shared/telemetry"
)

// WithRetry wraps a client so transient failures are retried up to
// maxRetries times with a fixed delay. maxRetries <= 0 returns client as-is.
func WithRetry(client Client, maxRetries int, delay time.Duration) Client {
	if client == nil || maxRetries <= 0 {
		return client
	}
	return &retryingClient{inner: client, maxRetries: maxRetries, delay: delay}
}

type retryingClient struct {
	inner      Client
	maxRetries int
	delay      time.Duration
}

func (r *retryingClient) Complete(ctx context.Context, req Request) (Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Completion{}, err
		}
		out, err := r.inner.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == r.maxRetries {
			break
		}
		telemetry.Warn("llm.retry", map[string]any{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return Completion{}, ctx.Err()
		}
	}
	return Completion{}, lastErr
}

// IsTransient reports whether err is worth retrying: timeouts, network
// failures, rate limiting and provider 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
