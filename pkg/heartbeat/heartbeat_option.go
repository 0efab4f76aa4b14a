package heartbeat

import (
	"time"

	"github.com/mixer/clock"
)

type Option func(*Sender)

// WithInterval sets the time between heartbeats.
func WithInterval(interval time.Duration) Option {
	return func(s *Sender) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithClock sets the clock used for the heartbeat ticker. Tests pass
// clock.NewMockClock().
func WithClock(c clock.Clock) Option {
	return func(s *Sender) {
		s.clock = c
	}
}

// WithPath overrides the heartbeat endpoint path.
func WithPath(path string) Option {
	return func(s *Sender) {
		s.path = path
	}
}

// WithBeacon makes b the preferred transport whenever it is available.
func WithBeacon(b Beacon) Option {
	return func(s *Sender) {
		s.beacon = b
	}
}

func WithObserver(o Observer) Option {
	return func(s *Sender) {
		s.observer = o
	}
}
