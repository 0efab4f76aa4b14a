package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ebl-league/pulse/pkg/weeknav"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
)

// runWeek prints the leaderboard URL for a week and optionally requests it.
func runWeek(args []string) error {
	opts, err := parseOptions("week", args)
	if err != nil {
		return err
	}

	logger := newLogger(opts)
	defer logger.Close()

	return navigateWeek(context.Background(), os.Stdout, opts, time.Now(), logger)
}

func navigateWeek(ctx context.Context, out io.Writer, opts *options, now time.Time, logger log.Logger) error {
	weekStart := opts.weekStart
	if weekStart == "" {
		weekStart = weeknav.WeekStart(now).Format(weeknav.Format)
	} else if _, err := weeknav.Parse(weekStart); err != nil {
		return err
	}

	client, err := newSession(opts, logger)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}

	target, err := client.Resolve(weeknav.Path(weekStart))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, target.String())

	if !opts.fetch {
		return nil
	}

	if opts.email != "" {
		if err := client.Login(ctx, opts.email, opts.password); err != nil {
			return errors.Wrap(err, "logging in")
		}
	}

	status, err := client.Get(ctx, weeknav.Path(weekStart))
	if err != nil {
		return errors.Wrapf(err, "fetching %s", target)
	}
	fmt.Fprintf(out, "%d\n", status)

	return nil
}
