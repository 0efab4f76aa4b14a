// Package beacon implements best-effort, fire-and-forget delivery. Beacons
// are queued without blocking and sent by a background worker. The queue
// accepts beacons from the moment it is built, so work queued before the
// worker starts waits for it. Once the worker is told to stop, anything in
// flight or still queued gets until the flush deadline to go out.
package beacon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

type sender interface {
	Post(ctx context.Context, path string) error
}

const (
	defaultCapacity        = 64
	defaultDeliveryTimeout = 10 * time.Second
	defaultFlushTimeout    = 5 * time.Second
)

type Queue struct {
	logger          log.Logger
	sender          sender
	capacity        int
	deliveryTimeout time.Duration
	flushTimeout    time.Duration

	queue chan string

	// acceptLock guards the transition to closed so that no Enqueue can
	// slip in after the final flush has started.
	acceptLock sync.RWMutex
	closed     atomic.Bool
	started    atomic.Bool
}

type Option func(*Queue)

func WithLogger(logger log.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithCapacity sets how many beacons may wait for delivery at once.
func WithCapacity(capacity int) Option {
	return func(q *Queue) {
		q.capacity = capacity
	}
}

// WithDeliveryTimeout bounds a single delivery.
func WithDeliveryTimeout(timeout time.Duration) Option {
	return func(q *Queue) {
		q.deliveryTimeout = timeout
	}
}

// WithFlushTimeout bounds the final drain on shutdown.
func WithFlushTimeout(timeout time.Duration) Option {
	return func(q *Queue) {
		q.flushTimeout = timeout
	}
}

func New(sender sender, opts ...Option) *Queue {
	q := &Queue{
		logger:          log.NewNopLogger(),
		sender:          sender,
		capacity:        defaultCapacity,
		deliveryTimeout: defaultDeliveryTimeout,
		flushTimeout:    defaultFlushTimeout,
	}

	for _, opt := range opts {
		opt(q)
	}

	if q.capacity < 1 {
		q.capacity = 1
	}

	q.queue = make(chan string, q.capacity)
	q.logger = log.With(q.logger, "component", "beacon")

	return q
}

// Available reports whether beacons are currently being accepted. It is
// true from New until the worker has stopped.
func (q *Queue) Available() bool {
	return !q.closed.Load()
}

// Enqueue hands path to the background worker and returns immediately. It
// returns false if the beacon was not accepted, either because the worker
// has stopped or because the queue is full.
func (q *Queue) Enqueue(path string) bool {
	q.acceptLock.RLock()
	defer q.acceptLock.RUnlock()

	if q.closed.Load() {
		return false
	}

	select {
	case q.queue <- path:
		return true
	default:
		return false
	}
}

// Run delivers queued beacons until ctx is cancelled, then flushes whatever
// is still queued and returns. The flush timeout starts when ctx is
// cancelled and bounds a delivery already in flight as well as the drain.
// A queue runs at most once.
func (q *Queue) Run(ctx context.Context) error {
	if !q.started.CompareAndSwap(false, true) {
		return errors.New("already running")
	}

	deliveryCtx, cancelDeliveries := context.WithCancel(context.Background())
	defer cancelDeliveries()
	go q.expireAfterShutdown(ctx, deliveryCtx, cancelDeliveries)

	level.Debug(q.logger).Log("msg", "beacon worker started", "capacity", q.capacity)

	for {
		// shutdown takes priority over a non-empty queue
		if ctx.Err() != nil {
			q.stop(deliveryCtx)
			return nil
		}

		select {
		case path := <-q.queue:
			q.deliver(deliveryCtx, path)
		case <-ctx.Done():
			q.stop(deliveryCtx)
			return nil
		}
	}
}

// expireAfterShutdown cancels deliveryCtx flushTimeout after ctx is done.
func (q *Queue) expireAfterShutdown(ctx, deliveryCtx context.Context, cancel context.CancelFunc) {
	select {
	case <-ctx.Done():
	case <-deliveryCtx.Done():
		return
	}

	timer := time.NewTimer(q.flushTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		cancel()
	case <-deliveryCtx.Done():
	}
}

func (q *Queue) stop(deliveryCtx context.Context) {
	q.acceptLock.Lock()
	q.closed.Store(true)
	q.acceptLock.Unlock()

	q.flush(deliveryCtx)
}

func (q *Queue) flush(deliveryCtx context.Context) {
	flushed := 0
	for {
		if deliveryCtx.Err() != nil {
			level.Debug(q.logger).Log(
				"msg", "flush deadline exceeded, dropping queued beacons",
				"flushed", flushed,
				"dropped", len(q.queue),
			)
			return
		}

		select {
		case path := <-q.queue:
			q.deliver(deliveryCtx, path)
			flushed++
		default:
			level.Debug(q.logger).Log("msg", "beacon worker stopped", "flushed", flushed)
			return
		}
	}
}

// deliver sends one beacon. The outcome is not observable by whoever
// enqueued it, so errors stop here.
func (q *Queue) deliver(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(ctx, q.deliveryTimeout)
	defer cancel()

	_ = q.sender.Post(ctx, path)
}
