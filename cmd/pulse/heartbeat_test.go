package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ebl-league/pulse/pkg/heartbeat"
	"github.com/ebl-league/pulse/pkg/metrics"
	"github.com/go-kit/kit/log"
	"github.com/oklog/run"
	"github.com/stretchr/testify/require"
)

func scrapeMetrics(t *testing.T, recorder *metrics.Recorder) string {
	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestAddHeartbeat_FirstSendUsesBeacon(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{}, 16)
	release := make(chan struct{})
	var delivered atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != heartbeat.DefaultPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		arrived <- struct{}{}
		select {
		case <-release:
			delivered.Add(1)
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	var releaseOnce sync.Once
	releaseHeartbeat := func() { releaseOnce.Do(func() { close(release) }) }
	t.Cleanup(releaseHeartbeat)

	opts := &options{
		origin:         server.URL,
		interval:       time.Hour,
		heartbeatPath:  heartbeat.DefaultPath,
		beaconCapacity: defaultBeaconCapacity,
		requestTimeout: 5 * time.Second,
		flushTimeout:   5 * time.Second,
	}
	client, err := newSession(opts, log.NewNopLogger())
	require.NoError(t, err)

	recorder := metrics.New()
	var runGroup run.Group
	addHeartbeat(&runGroup, client, "red-sox", opts, recorder, log.NewNopLogger())

	// Shut the group down while the first heartbeat is still in flight.
	runGroup.Add(func() error {
		select {
		case <-arrived:
		case <-time.After(5 * time.Second):
			return errors.New("first heartbeat never arrived")
		}
		go func() {
			time.Sleep(50 * time.Millisecond)
			releaseHeartbeat()
		}()
		return nil
	}, func(error) {})

	done := make(chan error, 1)
	go func() {
		done <- runGroup.Run()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run group did not stop")
	}

	require.Equal(t, int32(1), delivered.Load(), "in-flight beacon should complete during shutdown")

	body := scrapeMetrics(t, recorder)
	require.Contains(t, body, `pulse_heartbeat_attempts_total{session="red-sox",transport="beacon"} 1`)
	require.NotContains(t, body, `transport="request"`)
}

func TestAddHeartbeat_NoBeacon(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{}, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == heartbeat.DefaultPath {
			arrived <- struct{}{}
		}
	}))
	t.Cleanup(server.Close)

	opts := &options{
		origin:         server.URL,
		interval:       time.Hour,
		heartbeatPath:  heartbeat.DefaultPath,
		noBeacon:       true,
		requestTimeout: 5 * time.Second,
	}
	client, err := newSession(opts, log.NewNopLogger())
	require.NoError(t, err)

	recorder := metrics.New()
	var runGroup run.Group
	addHeartbeat(&runGroup, client, "blue-jays", opts, recorder, log.NewNopLogger())
	runGroup.Add(func() error {
		select {
		case <-arrived:
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("heartbeat never arrived")
		}
	}, func(error) {})

	require.NoError(t, runGroup.Run())

	body := scrapeMetrics(t, recorder)
	require.Contains(t, body, `pulse_heartbeat_attempts_total{session="blue-jays",transport="request"} 1`)
	require.NotContains(t, body, `transport="beacon"`)
}

func TestSessionName(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name     string
		opts     *options
		expected string
	}{
		{name: "default", opts: &options{sessionName: defaultSessionName}, expected: "default"},
		{name: "sanitized", opts: &options{sessionName: "Red Sox!"}, expected: "Red-Sox"},
		{name: "empty", opts: &options{}, expected: defaultSessionName},
		{name: "email is not a label", opts: &options{email: "owner@example.com", password: "hunter2"}, expected: defaultSessionName},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, sessionName(tt.opts))
		})
	}
}
