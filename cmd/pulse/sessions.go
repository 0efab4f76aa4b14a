package main

import (
	"context"
	"fmt"

	"github.com/ebl-league/pulse/pkg/backoff"
	"github.com/ebl-league/pulse/pkg/league"
	"github.com/ebl-league/pulse/pkg/metrics"
	"github.com/ebl-league/pulse/pkg/session"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// runSessions logs in every team from the roster file and keeps all of
// their sessions alive until signalled.
func runSessions(args []string) error {
	opts, err := parseOptions("sessions", args)
	if err != nil {
		return err
	}

	logger := newLogger(opts)
	defer logger.Close()

	roster, err := league.ParseFile(opts.leaguePath)
	if err != nil {
		return errors.Wrap(err, "reading league roster")
	}

	accounts, err := roster.Accounts(opts.teams)
	if err != nil {
		return errors.Wrapf(err, "validating %s", opts.leaguePath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clients, err := openSessions(ctx, accounts, opts, logger)
	if err != nil {
		return err
	}

	var runGroup run.Group
	recorder := metrics.New()

	addSignalListener(&runGroup, cancel, logger)
	addMetricsServer(&runGroup, opts, recorder, logger)
	for i, account := range accounts {
		addHeartbeat(&runGroup, clients[i], league.SafeName(account.Team), opts, recorder, logger)
	}

	level.Info(logger).Log("msg", "launched sessions for all teams", "count", len(accounts))

	return runGroup.Run()
}

// openSessions logs in all accounts concurrently, paced by opts.loginRate.
// Logins that fail for transient reasons are retried; any login that still
// fails fails the whole batch.
func openSessions(ctx context.Context, accounts []league.Account, opts *options, logger log.Logger) ([]*session.Client, error) {
	limiter := rate.NewLimiter(rate.Limit(opts.loginRate), 1)
	retry := backoff.New(
		backoff.WithMaxAttempts(opts.loginAttempts),
		backoff.WithRetryable(func(err error) bool {
			// wrong credentials or shutdown will not improve by waiting
			return !errors.Is(err, session.ErrInvalidCredentials) && !errors.Is(err, context.Canceled)
		}),
	)
	clients := make([]*session.Client, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			client, err := newSession(opts, log.With(logger, "session", league.SafeName(account.Team)))
			if err != nil {
				return err
			}

			if err := retry.Run(gctx, func() error {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				return client.Login(gctx, account.Email, account.Password)
			}); err != nil {
				return fmt.Errorf("opening session for %s: %w", account.Team, err)
			}

			clients[i] = client
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "opening sessions")
	}

	return clients, nil
}
