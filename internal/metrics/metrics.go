// Package metrics records authorization and secret-lifecycle counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the process counters. A nil *Recorder is valid and records
// nothing, which keeps tests and tools free of registry plumbing.
type Recorder struct {
	gateDecisions *prometheus.CounterVec
	secretFetches *prometheus.CounterVec
	clientBuilds  *prometheus.CounterVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		gateDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobboard_gate_decisions_total",
				Help: "Authentication and authorization gate outcomes",
			},
			[]string{"gate", "outcome"},
		),
		secretFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobboard_secret_fetches_total",
				Help: "Secret fetches performed during secret store initialization",
			},
			[]string{"result"},
		),
		clientBuilds: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobboard_client_constructions_total",
				Help: "Secret-backed client construction attempts",
			},
			[]string{"kind", "result"},
		),
	}
}

// GateDecision counts one gate outcome, e.g. ("authn", "missing_token").
func (r *Recorder) GateDecision(gate, outcome string) {
	if r == nil {
		return
	}
	r.gateDecisions.WithLabelValues(gate, outcome).Inc()
}

// SecretFetch counts one manifest fetch: ok, error, or empty.
func (r *Recorder) SecretFetch(result string) {
	if r == nil {
		return
	}
	r.secretFetches.WithLabelValues(result).Inc()
}

// ClientConstruction counts one client build attempt.
func (r *Recorder) ClientConstruction(kind, result string) {
	if r == nil {
		return
	}
	r.clientBuilds.WithLabelValues(kind, result).Inc()
}

// GateDecisionCounter exposes one gate series for tests and admin tooling.
func (r *Recorder) GateDecisionCounter(gate, outcome string) prometheus.Counter {
	return r.gateDecisions.WithLabelValues(gate, outcome)
}

// SecretFetchCounter exposes one secret fetch series.
func (r *Recorder) SecretFetchCounter(result string) prometheus.Counter {
	return r.secretFetches.WithLabelValues(result)
}

// ClientConstructionCounter exposes one client construction series.
func (r *Recorder) ClientConstructionCounter(kind, result string) prometheus.Counter {
	return r.clientBuilds.WithLabelValues(kind, result)
}
