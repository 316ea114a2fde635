package fpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Option configures ambient collaborators of the engine. If left empty,
// defaults will be used.
type Option func(e *Engine)

// WithLogger sets the logger the engine reports round progress and dropped
// queries to.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics registers the engine's metrics with the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = NewMetrics(reg)
	}
}
