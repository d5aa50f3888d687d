package db

import (
	"context"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 50 * time.Millisecond
)

// Retry runs fn up to three times, backing off between attempts, as long
// as the failure is transient. Any other error returns immediately.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	backoff := defaultRetryBackoff
	for attempt := 0; attempt < defaultRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return AsTransient(ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransientErr(err) {
			return err
		}
	}
	return AsTransient(err)
}
