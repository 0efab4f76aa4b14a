package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ebl-league/pulse/pkg/heartbeat"
	"github.com/stretchr/testify/require"
)

func TestParseOptions_Defaults(t *testing.T) { //nolint:paralleltest
	opts, err := parseOptions("run", []string{})
	require.NoError(t, err)

	require.Equal(t, defaultOrigin, opts.origin)
	require.Equal(t, heartbeat.DefaultInterval, opts.interval)
	require.Equal(t, heartbeat.DefaultPath, opts.heartbeatPath)
	require.False(t, opts.noBeacon)
	require.Equal(t, defaultBeaconCapacity, opts.beaconCapacity)
	require.Equal(t, defaultRequestTimeout, opts.requestTimeout)
	require.Equal(t, "", opts.metricsAddress)
	require.Equal(t, defaultSessionName, opts.sessionName)
}

func TestParseOptions_Flags(t *testing.T) { //nolint:paralleltest
	opts, err := parseOptions("run", []string{
		"--origin", "https://league.example.com",
		"--interval", "15s",
		"--no_beacon",
		"--email", "owner@example.com",
		"--password", "hunter2",
		"-debug",
	})
	require.NoError(t, err)

	require.Equal(t, "https://league.example.com", opts.origin)
	require.Equal(t, 15*time.Second, opts.interval)
	require.True(t, opts.noBeacon)
	require.Equal(t, "owner@example.com", opts.email)
	require.Equal(t, "hunter2", opts.password)
	require.True(t, opts.debug)
}

// Not parallel, since it sets environment variables.
func TestParseOptions_Env(t *testing.T) { //nolint:paralleltest
	t.Setenv("PULSE_ORIGIN", "https://env.example.com")
	t.Setenv("PULSE_INTERVAL", "2m")

	opts, err := parseOptions("run", []string{"--interval", "30s"})
	require.NoError(t, err)

	require.Equal(t, "https://env.example.com", opts.origin)
	require.Equal(t, 30*time.Second, opts.interval, "flags take precedence over env")
}

func TestParseOptions_ConfigFile(t *testing.T) { //nolint:paralleltest
	configPath := filepath.Join(t.TempDir(), "pulse.flags")
	require.NoError(t, os.WriteFile(configPath, []byte("origin https://file.example.com\nteams 4\n"), 0600))

	opts, err := parseOptions("sessions", []string{"--config", configPath})
	require.NoError(t, err)

	require.Equal(t, "https://file.example.com", opts.origin)
	require.Equal(t, 4, opts.teams)
	require.Equal(t, defaultLeaguePath, opts.leaguePath)
}

func TestParseOptions_Invalid(t *testing.T) { //nolint:paralleltest
	var tests = []struct {
		name       string
		subcommand string
		args       []string
	}{
		{name: "negative interval", subcommand: "run", args: []string{"--interval", "-1s"}},
		{name: "email without password", subcommand: "run", args: []string{"--email", "owner@example.com"}},
		{name: "zero login rate", subcommand: "sessions", args: []string{"--login_rate", "0"}},
		{name: "flag from another subcommand", subcommand: "week", args: []string{"--no_beacon"}},
		{name: "unknown flag", subcommand: "run", args: []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.subcommand, tt.args)
			require.Error(t, err)
		})
	}
}

func TestSplitSubcommand(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		args         []string
		expectedCmd  string
		expectedArgs []string
	}{
		{args: nil, expectedCmd: "run", expectedArgs: nil},
		{args: []string{"--origin", "x"}, expectedCmd: "run", expectedArgs: []string{"--origin", "x"}},
		{args: []string{"sessions", "--teams", "8"}, expectedCmd: "sessions", expectedArgs: []string{"--teams", "8"}},
		{args: []string{"version"}, expectedCmd: "version", expectedArgs: []string{}},
	}

	for _, tt := range tests {
		cmd, args := splitSubcommand(tt.args)
		require.Equal(t, tt.expectedCmd, cmd)
		require.Equal(t, tt.expectedArgs, args)
	}
}
