package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"library-lending/internal/core/database"
)

const (
	defaultRetryAttempts = 3
	retryBaseDelay       = 10 * time.Millisecond
	retryMaxDelay        = 500 * time.Millisecond
	retryJitter          = 0.3
)

// Retry re-runs fn after transient storage failures (serialization failures, deadlocks,
// busy sqlite) with exponential backoff. Domain errors fail fast. Lifecycle operations
// never retry themselves; transports opt in per call.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBaseDelay
	b.MaxInterval = retryMaxDelay
	b.RandomizationFactor = retryJitter

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn(ctx)
		if err != nil && !database.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(error, time.Duration) { retriesTotal.Inc() }),
	)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
