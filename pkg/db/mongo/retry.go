package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// RetryPolicy bounds automatic retries of transient store failures.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: 50 * time.Millisecond}
}

// IsTransient reports whether err is a network, timeout, or server error labelled retryable.
// Context cancellation by the caller is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}

	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("RetryableWriteError") ||
			se.HasErrorLabel("TransientTransactionError") ||
			se.HasErrorLabel("NetworkError")
	}
	return false
}

// WithRetry runs fn, retrying transient failures with linear backoff. Only idempotent
// operations may be wrapped.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || !IsTransient(err) || attempt >= policy.MaxRetries {
			return err
		}

		t := time.NewTimer(policy.Backoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}
