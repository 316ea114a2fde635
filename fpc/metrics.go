package fpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the engine's operational counters. Pass a registerer with
// WithMetrics to collect them; unregistered metrics cost nothing to update.
type Metrics struct {
	// RoundsExecuted counts successfully completed voting rounds.
	RoundsExecuted prometheus.Counter
	// RoundsFailed counts rounds aborted for lack of opinion givers.
	RoundsFailed prometheus.Counter
	// VotesFinalized counts votes that settled on a final opinion.
	VotesFinalized prometheus.Counter
	// VotesFailed counts votes that exhausted their round budget.
	VotesFailed prometheus.Counter
	// QueryFailures counts opinion giver queries that timed out, errored or
	// returned a malformed reply.
	QueryFailures prometheus.Counter
	// RoundDuration observes the wall-clock duration of completed rounds.
	RoundDuration prometheus.Histogram
	// ActiveContexts tracks the number of objects currently being voted on.
	ActiveContexts prometheus.Gauge
}

// NewMetrics creates the engine metrics, registered with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RoundsExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fpc",
			Name:      "rounds_executed_total",
			Help:      "Total number of voting rounds executed",
		}),
		RoundsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fpc",
			Name:      "rounds_failed_total",
			Help:      "Total number of voting rounds aborted for lack of opinion givers",
		}),
		VotesFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fpc",
			Name:      "votes_finalized_total",
			Help:      "Total number of votes that finalized",
		}),
		VotesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fpc",
			Name:      "votes_failed_total",
			Help:      "Total number of votes that exceeded the round budget",
		}),
		QueryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fpc",
			Name:      "query_failures_total",
			Help:      "Total number of dropped opinion giver queries",
		}),
		RoundDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fpc",
			Name:      "round_duration_seconds",
			Help:      "Wall-clock duration of voting rounds in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ActiveContexts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fpc",
			Name:      "active_contexts",
			Help:      "Number of objects currently being voted on",
		}),
	}
}
