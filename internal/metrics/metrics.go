// Package metrics is the in-process counter store the core writes to
// (spec §4.8's `input.<id>.out`, §9's per-output dropped-event counters).
// It is not the "metrics sink" named out of scope in spec §1 — that would
// be an exporter; this is the registry a Prometheus collector reads from.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is a small counter store behind a mutex (spec §5
// "Metrics store behind a mutex"), matching the teacher's habit of
// keeping `prometheus/client_golang` vectors behind its own bookkeeping
// rather than handing out raw collectors.
type Registry struct {
	mu sync.Mutex

	inputOut     *prometheus.CounterVec
	outputDrops  *prometheus.CounterVec
	outputErrors *prometheus.CounterVec
}

// NewRegistry builds a Registry and registers its collectors with reg
// (pass prometheus.DefaultRegisterer from cmd/xerocole, or a fresh
// registry in tests).
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		inputOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xerocole_input_events_out_total",
			Help: "Events forwarded from an input into the shared input queue.",
		}, []string{"input"}),
		outputDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xerocole_output_dropped_total",
			Help: "Events dropped because an output's channel was full (try_send isolation, spec §9).",
		}, []string{"output"}),
		outputErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xerocole_output_errors_total",
			Help: "Sink write errors per output.",
		}, []string{"output"}),
	}
	reg.MustRegister(r.inputOut, r.outputDrops, r.outputErrors)
	return r
}

func (r *Registry) IncInputOut(inputID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputOut.WithLabelValues(inputID).Inc()
}

func (r *Registry) IncOutputDropped(outputID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputDrops.WithLabelValues(outputID).Inc()
}

func (r *Registry) IncOutputError(outputID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputErrors.WithLabelValues(outputID).Inc()
}
