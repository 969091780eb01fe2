package resilience

import (
	"context"
	"math"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Retrier struct {
	cfg   RetryConfig
	sleep Sleeper
}

func NewRetrier(cfg RetryConfig, sleep Sleeper) *Retrier {
	if sleep == nil {
		sleep = SleepContext
	}
	return &Retrier{cfg: NormalizeRetryConfig(cfg), sleep: sleep}
}

func (r *Retrier) MaxAttempts() int {
	return r.cfg.MaxAttempts
}

// Backoff is the wait after the zero-based failed attempt: unit * base^attempt.
func (r *Retrier) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(float64(r.cfg.BackoffUnit) * math.Pow(r.cfg.BackoffBase, float64(attempt)))
}

// Do calls fn until it succeeds or MaxAttempts is reached. fn receives the
// zero-based attempt. onRetry, when set, runs before each backoff wait. The
// returned int is the number of attempts made; on exhaustion the last error
// from fn is returned as-is so callers can wrap it with their own context.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error, onRetry func(attempt int, wait time.Duration, err error)) (int, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt + 1, nil
		}
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		wait := r.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, wait, lastErr)
		}
		if err := r.sleep(ctx, wait); err != nil {
			return attempt + 1, err
		}
	}
	return r.cfg.MaxAttempts, lastErr
}
