package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMultiplicativeCounter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		baseInterval time.Duration
		maxInterval  time.Duration
		expected     []time.Duration
	}{
		{
			name:         "seconds",
			baseInterval: time.Second,
			maxInterval:  5 * time.Second,
			expected: []time.Duration{
				time.Second,     // 1s
				2 * time.Second, // 2s
				3 * time.Second, // 3s
				4 * time.Second, // 4s
				5 * time.Second, // 5s (max interval)
				5 * time.Second, // capped at max interval
			},
		},
		{
			name:         "combo",
			baseInterval: (1 * time.Minute) + (30 * time.Second),
			maxInterval:  5 * time.Minute,
			expected: []time.Duration{
				(1 * time.Minute) + (30 * time.Second),       // 1m30s
				2 * ((1 * time.Minute) + (30 * time.Second)), // 3m
				3 * ((1 * time.Minute) + (30 * time.Second)), // 4m30s
				5 * time.Minute, // 5m
				5 * time.Minute, // 5m
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dc := NewMultiplicativeDurationCounter(tt.baseInterval, tt.maxInterval)
			for _, expected := range tt.expected {
				require.Equal(t, expected, dc.Next())
			}

			dc.Reset()
			require.Equal(t, tt.baseInterval, dc.Next())
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	errTransient := errors.New("connection refused")
	errPermanent := errors.New("invalid credentials")

	tests := []struct {
		name             string
		failures         []error
		maxAttempts      int
		expectedAttempts int
		expectErr        bool
	}{
		{name: "first try", failures: nil, maxAttempts: 3, expectedAttempts: 1},
		{name: "succeeds after retries", failures: []error{errTransient, errTransient}, maxAttempts: 3, expectedAttempts: 3},
		{name: "runs out of attempts", failures: []error{errTransient, errTransient, errTransient}, maxAttempts: 3, expectedAttempts: 3, expectErr: true},
		{name: "permanent error", failures: []error{errPermanent}, maxAttempts: 3, expectedAttempts: 1, expectErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := New(
				WithMaxAttempts(tt.maxAttempts),
				WithDelays(time.Millisecond, 5*time.Millisecond),
				WithRetryable(func(err error) bool { return !errors.Is(err, errPermanent) }),
			)

			attempts := 0
			err := b.Run(context.Background(), func() error {
				attempts++
				if attempts <= len(tt.failures) {
					return tt.failures[attempts-1]
				}
				return nil
			})

			require.Equal(t, tt.expectedAttempts, attempts)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRun_ContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := New(WithMaxAttempts(10), WithDelays(time.Hour, time.Hour))

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx, func() error {
			attempts++
			return errors.New("connection refused")
		})
	}()

	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		require.Equal(t, 1, attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context was cancelled")
	}
}
