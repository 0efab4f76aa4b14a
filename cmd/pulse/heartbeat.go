package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/ebl-league/pulse/pkg/beacon"
	"github.com/ebl-league/pulse/pkg/heartbeat"
	pulselog "github.com/ebl-league/pulse/pkg/log"
	"github.com/ebl-league/pulse/pkg/metrics"
	"github.com/ebl-league/pulse/pkg/session"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/ulid"
	"github.com/oklog/run"
)

func newLogger(opts *options) *pulselog.Logger {
	return pulselog.New(
		pulselog.WithDebug(opts.debug),
		pulselog.WithFile(opts.logFile),
	)
}

func newSession(opts *options, logger log.Logger) (*session.Client, error) {
	return session.New(opts.origin,
		session.WithLogger(logger),
		session.WithTimeout(opts.requestTimeout),
	)
}

// addHeartbeat adds one session's heartbeat, and its beacon queue unless
// disabled, to the run group.
func addHeartbeat(runGroup *run.Group, client *session.Client, name string, opts *options, recorder *metrics.Recorder, logger log.Logger) {
	logger = log.With(logger, "session", name, "instance_id", ulid.New())

	senderOpts := []heartbeat.Option{
		heartbeat.WithInterval(opts.interval),
		heartbeat.WithPath(opts.heartbeatPath),
		heartbeat.WithObserver(recorder.ForSession(name)),
	}

	if !opts.noBeacon {
		queue := beacon.New(client,
			beacon.WithLogger(logger),
			beacon.WithCapacity(opts.beaconCapacity),
			beacon.WithDeliveryTimeout(opts.requestTimeout),
			beacon.WithFlushTimeout(opts.flushTimeout),
		)
		beaconCtx, beaconCancel := context.WithCancel(context.Background())
		runGroup.Add(func() error {
			return queue.Run(beaconCtx)
		}, func(error) {
			beaconCancel()
		})

		senderOpts = append(senderOpts, heartbeat.WithBeacon(queue))
	}

	sender := heartbeat.New(logger, client, senderOpts...)
	runGroup.Add(sender.Execute, sender.Interrupt)
}

// addMetricsServer serves the recorder on opts.metricsAddress, if set.
func addMetricsServer(runGroup *run.Group, opts *options, recorder *metrics.Recorder, logger log.Logger) {
	if opts.metricsAddress == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	server := &http.Server{
		Addr:              opts.metricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runGroup.Add(func() error {
		level.Info(logger).Log("msg", "serving metrics", "address", opts.metricsAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			level.Error(logger).Log(
				"msg", "shutting down metrics server",
				"err", err,
			)
		}
	})
}

// addSignalListener stops the run group on SIGINT or SIGTERM.
func addSignalListener(runGroup *run.Group, cancel context.CancelFunc, logger log.Logger) {
	sigListener := newSignalListener(make(chan os.Signal, 1), cancel, logger)
	runGroup.Add(sigListener.Execute, sigListener.Interrupt)
}
