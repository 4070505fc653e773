// Package retry wraps cenkalti/backoff with the fixed policy used for
// transient failures of external collaborators: capped exponential delays
// with a hard attempt bound.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CapDelay    time.Duration
}

// DefaultPolicy returns the standard action retry schedule: three attempts
// with delays of 1s and 2s between them (doubling, capped at 10s).
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		CapDelay:    10 * time.Second,
	}
}

// Permanent marks err as non-retryable so Do returns immediately without
// consuming the remaining attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op under the policy, sleeping between failed attempts. It returns
// the number of attempts actually made together with the final error, which
// is nil once any attempt succeeds. Context cancellation stops the schedule
// early.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	attempts := 0

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = 2
	bo.MaxInterval = p.CapDelay
	bo.RandomizationFactor = 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		return struct{}{}, op(ctx)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	)
	return attempts, err
}
