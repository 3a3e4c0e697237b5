package capture

import (
	"context"
	"time"
)

// RetryObserver is notified after each failed attempt that will be
// retried. Observers exist for logging and telemetry and must not
// alter control flow.
type RetryObserver func(attempt int, err error)

// Retrier invokes flaky automation actions with a bounded number of
// attempts and a fixed delay between them. Browser actions tend to
// succeed on a quick second try or not at all, so there is no backoff.
type Retrier struct {
	// Attempts is the maximum number of invocations, including the
	// first. Values below 1 are treated as 1.
	Attempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration

	// OnRetry, if set, observes each failure that will be retried. It
	// is not invoked after the final attempt.
	OnRetry RetryObserver
}

// Do invokes op until it succeeds or attempts are exhausted. Success
// returns immediately with no further invocations. After the final
// failed attempt the last error propagates. The wait between attempts
// aborts early with the context error when ctx is canceled.
func (r Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		if r.OnRetry != nil {
			r.OnRetry(attempt, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delay):
		}
	}

	return lastErr
}
