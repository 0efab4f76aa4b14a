package backoff

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Backoff retries a function, waiting a little longer after each failure.
// It holds no per-run state and may be shared between goroutines.
type Backoff struct {
	maxAttempts         int
	baseDelay, maxDelay time.Duration
	retryable           func(error) bool
}

type Option func(*Backoff)

// WithMaxAttempts sets how many times the function is tried in total.
func WithMaxAttempts(attempts int) Option {
	return func(b *Backoff) {
		b.maxAttempts = attempts
	}
}

// WithDelays sets the first delay, and the cap on later ones. Delays grow
// linearly: base, 2*base, 3*base...
func WithDelays(base, max time.Duration) Option {
	return func(b *Backoff) {
		b.baseDelay = base
		b.maxDelay = max
	}
}

// WithRetryable sets which errors are worth another attempt. By default
// all of them are.
func WithRetryable(retryable func(error) bool) Option {
	return func(b *Backoff) {
		b.retryable = retryable
	}
}

// New returns a Backoff
func New(opts ...Option) *Backoff {
	b := &Backoff{
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		retryable:   func(error) bool { return true },
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.maxAttempts < 1 {
		b.maxAttempts = 1
	}

	return b
}

// Run tries runFunc until it succeeds, returns an error that is not
// retryable, runs out of attempts, or ctx is done.
func (b *Backoff) Run(ctx context.Context, runFunc func() error) error {
	delays := NewMultiplicativeDurationCounter(b.baseDelay, b.maxDelay)

	for attempt := 1; ; attempt++ {
		err := runFunc()
		if err == nil {
			return nil
		}

		if !b.retryable(err) {
			return err
		}

		if attempt >= b.maxAttempts {
			return errors.Wrap(err, "done trying")
		}

		timer := time.NewTimer(delays.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(err, "gave up waiting to retry")
		case <-timer.C:
		}
	}
}
