// Package metrics exposes heartbeat attempt counts in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/ebl-league/pulse/pkg/heartbeat"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a registry and the heartbeat counters registered in it.
type Recorder struct {
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_heartbeat_attempts_total",
				Help: "Count of heartbeat send attempts, by session and transport",
			},
			[]string{"session", "transport"},
		),
	}

	r.registry.MustRegister(r.attempts)
	return r
}

// Handler serves the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ForSession returns an observer that counts attempts under the given
// session label.
func (r *Recorder) ForSession(name string) heartbeat.Observer {
	return &sessionObserver{name: name, attempts: r.attempts}
}

type sessionObserver struct {
	name     string
	attempts *prometheus.CounterVec
}

func (o *sessionObserver) Attempted(transport heartbeat.Transport) {
	o.attempts.WithLabelValues(o.name, transport.String()).Inc()
}
