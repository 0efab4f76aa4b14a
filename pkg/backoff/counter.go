package backoff

import (
	"time"
)

// DelayCounter hands out retry delays that grow with each call.
type DelayCounter struct {
	count           int
	base, ceiling   time.Duration
	delayForAttempt func(count int, base time.Duration) time.Duration
}

// NewMultiplicativeDurationCounter returns a counter whose nth delay is
// n*base, capped at ceiling.
func NewMultiplicativeDurationCounter(base, ceiling time.Duration) *DelayCounter {
	return &DelayCounter{
		base:    base,
		ceiling: ceiling,
		delayForAttempt: func(count int, base time.Duration) time.Duration {
			return base * time.Duration(count)
		},
	}
}

// Next counts one more failure and returns the delay before the next try.
func (dc *DelayCounter) Next() time.Duration {
	dc.count++
	if delay := dc.delayForAttempt(dc.count, dc.base); delay < dc.ceiling {
		return delay
	}
	return dc.ceiling
}

// Reset starts the sequence over.
func (dc *DelayCounter) Reset() {
	dc.count = 0
}
