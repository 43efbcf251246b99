package pipeline

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	initialRetryWait = 200 * time.Millisecond
	maxRetryWait     = 5 * time.Second
)

// retryPolicy doubles the wait after each failed cycle up to maxRetryWait and
// starts over once a batch arrives.
type retryPolicy struct {
	wait time.Duration
}

func newRetryPolicy() *retryPolicy {
	return &retryPolicy{wait: initialRetryWait}
}

// next returns the wait before the coming retry and advances the policy.
func (r *retryPolicy) next() time.Duration {
	d := r.wait
	r.wait = min(r.wait*2, maxRetryWait)
	return d
}

func (r *retryPolicy) reset() {
	r.wait = initialRetryWait
}

// sleepClock waits d on clock and reports false if ctx ended first.
func sleepClock(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
