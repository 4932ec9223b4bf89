package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"

	"airfare-collector/internal/domain/entity"
)

// RetryPolicy is the per-request retry schedule. Each request key gets its
// own attempt counter; nothing is shared between requests.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}

// DefaultRetryPolicy is one try plus two retries, waiting 2s then 4s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

// Delay is the wait after the given zero-based failed attempt: BaseDelay * 2^attempt
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if p.Jitter > 0 {
		d += rand.N(p.Jitter)
	}
	return d
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// attemptOutcome labels a fetch attempt for logs and metrics
func attemptOutcome(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, entity.ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}

// retryable reports whether another attempt may succeed
func retryable(err error) bool {
	return !errors.Is(err, entity.ErrMalformedResponse) && !errors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
