// Package logger centralizes construction of the structured loggers used
// throughout the engine. Every subsystem receives a *zap.SugaredLogger
// scoped to its own name so that log lines can be filtered per component
// without threading a naming convention through every call site.
package logger

import (
	"go.uber.org/zap"
)

// New builds a production-configured SugaredLogger tagged with service,
// the top-level instance name, so that multiple Instances in the same
// process remain distinguishable in the log stream.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		// Falling back to a no-op logger keeps construction infallible for
		// callers; a broken logging pipeline should never prevent the
		// engine itself from starting.
		log = zap.NewNop()
	}

	return log.Sugar().Named(service)
}

// Named derives a child logger scoped to a specific subsystem, e.g.
// logger.Named(base, "bplustree").
func Named(base *zap.SugaredLogger, component string) *zap.SugaredLogger {
	return base.Named(component)
}
