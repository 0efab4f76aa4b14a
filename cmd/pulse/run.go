package main

import (
	"context"

	"github.com/ebl-league/pulse/pkg/league"
	"github.com/ebl-league/pulse/pkg/metrics"
	"github.com/go-kit/kit/log/level"
	"github.com/oklog/run"
	"github.com/pkg/errors"
)

// runHeartbeat keeps a single session alive until signalled.
func runHeartbeat(args []string) error {
	opts, err := parseOptions("run", args)
	if err != nil {
		return err
	}

	logger := newLogger(opts)
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := newSession(opts, logger)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}

	name := sessionName(opts)
	if opts.email != "" {
		if err := client.Login(ctx, opts.email, opts.password); err != nil {
			return errors.Wrap(err, "logging in")
		}
		level.Info(logger).Log("msg", "logged in", "session", name)
	}

	var runGroup run.Group
	recorder := metrics.New()

	addSignalListener(&runGroup, cancel, logger)
	addMetricsServer(&runGroup, opts, recorder, logger)
	addHeartbeat(&runGroup, client, name, opts, recorder, logger)

	return runGroup.Run()
}

// sessionName is the label a single session is logged and counted under.
// It comes from --session_name and never from the login email.
func sessionName(opts *options) string {
	if name := league.SafeName(opts.sessionName); name != "" {
		return name
	}
	return defaultSessionName
}
