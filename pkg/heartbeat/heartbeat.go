// Package heartbeat sends a periodic, content-free liveness signal for a
// session. One attempt is made as soon as the sender starts and one more
// every interval after that, until the sender is interrupted.
//
// Sends are fire-and-forget. Nothing about a send's outcome is reported
// back, retried, or allowed to disturb the schedule; the next tick is the
// retry.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mixer/clock"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultPath     = "/heartbeat"
)

// Requester is the general-purpose request primitive used when no beacon is
// available. Post must issue a POST to path within the session's origin,
// carrying the session's credentials.
type Requester interface {
	Post(ctx context.Context, path string) error
}

// Beacon is the preferred, best-effort delivery primitive.
type Beacon interface {
	// Available reports whether the beacon can currently accept work.
	Available() bool
	// Enqueue hands off path for background delivery without blocking.
	Enqueue(path string) bool
}

// Observer is told about every send attempt and the transport it used.
type Observer interface {
	Attempted(transport Transport)
}

// Sender is the heartbeat loop. It is meant to be run as a run group
// actor: Execute blocks until Interrupt is called.
type Sender struct {
	logger    log.Logger
	clock     clock.Clock
	interval  time.Duration
	path      string
	requester Requester
	beacon    Beacon
	observer  Observer

	// ctx is handed to fallback requests, and cancelled by Interrupt so
	// in-flight requests do not outlive the sender.
	ctx    context.Context
	cancel context.CancelFunc

	interruptOnce sync.Once
}

func New(logger log.Logger, requester Requester, opts ...Option) *Sender {
	s := &Sender{
		logger:    logger,
		clock:     clock.DefaultClock{},
		interval:  DefaultInterval,
		path:      DefaultPath,
		requester: requester,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = log.NewNopLogger()
	}
	s.logger = log.With(s.logger, "component", "heartbeat")

	s.ctx, s.cancel = context.WithCancel(context.Background())

	return s
}

// Execute sends one heartbeat immediately, then one per interval, until
// Interrupt is called. It always returns nil.
func (s *Sender) Execute() error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	level.Info(s.logger).Log(
		"msg", "starting heartbeat",
		"interval", s.interval.String(),
		"path", s.path,
	)

	s.Send()

	for {
		select {
		case <-s.ctx.Done():
			level.Info(s.logger).Log("msg", "heartbeat stopped")
			return nil
		case <-ticker.Chan():
			s.Send()
		}
	}
}

// Interrupt stops the loop. It is safe to call more than once.
func (s *Sender) Interrupt(_ error) {
	s.interruptOnce.Do(s.cancel)
}

// Send makes a single heartbeat attempt and returns without waiting for it
// to complete.
func (s *Sender) Send() {
	transport := s.choose()

	switch transport {
	case TransportBeacon:
		// A rejected beacon is not retried through the fallback; like a
		// failed request, it is simply a missed heartbeat.
		s.beacon.Enqueue(s.path)
	case TransportRequest:
		go func() {
			_ = s.requester.Post(s.ctx, s.path)
		}()
	}

	if s.observer != nil {
		s.observer.Attempted(transport)
	}
}

// choose picks the transport for one send. The beacon is a capability, not
// a fallback target: if it is present and reports itself available it is
// used, otherwise the request primitive is.
func (s *Sender) choose() Transport {
	if s.beacon != nil && s.beacon.Available() {
		return TransportBeacon
	}
	return TransportRequest
}
