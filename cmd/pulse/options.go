package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ebl-league/pulse/pkg/heartbeat"
	"github.com/ebl-league/pulse/pkg/league"
	"github.com/peterbourgon/ff/v3"
	"github.com/pkg/errors"
)

const (
	envVarPrefix          = "PULSE"
	defaultOrigin         = "http://127.0.0.1:5000"
	defaultRequestTimeout = 30 * time.Second
	defaultFlushTimeout   = 5 * time.Second
	defaultBeaconCapacity = 64
	defaultLoginRate      = 2.0
	defaultLoginAttempts  = 3
	defaultLeaguePath     = "test-league.md"
	defaultSessionName    = "default"
)

// options is the set of configurable options that may be set when running
// any of the subcommands. Not every subcommand registers every flag.
type options struct {
	origin         string
	sessionName    string
	email          string
	password       string
	interval       time.Duration
	heartbeatPath  string
	noBeacon       bool
	beaconCapacity int
	flushTimeout   time.Duration
	requestTimeout time.Duration
	metricsAddress string

	leaguePath    string
	teams         int
	loginRate     float64
	loginAttempts int

	weekStart string
	fetch     bool

	debug   bool
	logFile string
}

// parseOptions parses the flags for subcommand from args, environment
// variables prefixed with PULSE_, and an optional config file, in that order
// of precedence.
func parseOptions(subcommand string, args []string) (*options, error) {
	opts := &options{}

	flagset := flag.NewFlagSet("pulse "+subcommand, flag.ContinueOnError)
	flagset.Usage = func() { usage(flagset) }

	flagset.StringVar(&opts.origin, "origin", defaultOrigin, "Base URL of the league site; heartbeats are only sent to this origin")
	flagset.DurationVar(&opts.requestTimeout, "request_timeout", defaultRequestTimeout, "Timeout for a single HTTP request")
	flagset.BoolVar(&opts.debug, "debug", false, "Whether or not debug logging is enabled (default: false)")
	flagset.StringVar(&opts.logFile, "log_file", "", "Also write logs to this file, rotating it as it grows")
	_ = flagset.String("config", "", "config file to parse options from (optional)")

	switch subcommand {
	case "run", "sessions":
		flagset.DurationVar(&opts.interval, "interval", heartbeat.DefaultInterval, "The interval at which heartbeats are sent")
		flagset.StringVar(&opts.heartbeatPath, "heartbeat_path", heartbeat.DefaultPath, "Path of the heartbeat endpoint")
		flagset.BoolVar(&opts.noBeacon, "no_beacon", false, "Send every heartbeat as a direct request instead of through the background beacon queue")
		flagset.IntVar(&opts.beaconCapacity, "beacon_capacity", defaultBeaconCapacity, "How many beacons may wait for delivery at once")
		flagset.DurationVar(&opts.flushTimeout, "flush_timeout", defaultFlushTimeout, "How long queued beacons may take to go out on shutdown")
		flagset.StringVar(&opts.metricsAddress, "metrics_address", "", "Serve Prometheus metrics on this address (disabled when empty)")
	}

	switch subcommand {
	case "run", "week":
		flagset.StringVar(&opts.email, "email", "", "Log in with this email before starting (optional)")
		flagset.StringVar(&opts.password, "password", "", "Password for --email")
		if subcommand == "run" {
			flagset.StringVar(&opts.sessionName, "session_name", defaultSessionName, "Label for this session in logs and metrics")
		}
	case "sessions":
		flagset.StringVar(&opts.leaguePath, "league", defaultLeaguePath, "Path to the league roster markdown file")
		flagset.IntVar(&opts.teams, "teams", league.DefaultTeamCount, "Number of teams the roster must define (0 accepts any number)")
		flagset.Float64Var(&opts.loginRate, "login_rate", defaultLoginRate, "Maximum logins per second while opening sessions")
		flagset.IntVar(&opts.loginAttempts, "login_attempts", defaultLoginAttempts, "How many times to try each login before giving up")
	}

	if subcommand == "week" {
		flagset.StringVar(&opts.weekStart, "week_start", "", "Week to navigate to, as YYYY-MM-DD (default: the current week's Monday)")
		flagset.BoolVar(&opts.fetch, "fetch", false, "Request the week page and print the response status")
	}

	if err := ff.Parse(flagset, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix(envVarPrefix),
	); err != nil {
		return nil, errors.Wrap(err, "parsing flags")
	}

	if opts.interval < 0 {
		return nil, fmt.Errorf("interval must not be negative, got %s", opts.interval)
	}

	if opts.email != "" && opts.password == "" {
		return nil, errors.New("--password is required with --email")
	}

	if subcommand == "sessions" && opts.loginRate <= 0 {
		return nil, fmt.Errorf("login_rate must be positive, got %v", opts.loginRate)
	}

	return opts, nil
}

func usage(flagset *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Usage: %s [flags]\n", flagset.Name())
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Subcommands: %s\n", strings.Join(subcommandNames, ", "))
	fmt.Fprintf(os.Stderr, "\n")
	flagset.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Flags may also be set as %s_<FLAG> environment variables.\n", envVarPrefix)
	fmt.Fprintf(os.Stderr, "\n")
}
