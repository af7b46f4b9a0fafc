// Package tuntundb provides a fixed-record heap-file storage engine with
// disk-resident B+ tree indexes, driven entirely by structured query
// objects rather than a textual SQL front end.
//
// Instance is the primary entry point: Open constructs one over a data
// directory, ExecuteQuery runs a single CREATE/INSERT/SELECT/DELETE/DROP
// against it, and Close releases every open file handle.
package tuntundb

import (
	"context"

	"github.com/iamNilotpal/tuntundb/internal/engine"
	"github.com/iamNilotpal/tuntundb/pkg/logger"
	"github.com/iamNilotpal/tuntundb/pkg/options"
)

// Instance represents a running tuntundb engine bound to one data
// directory. It encapsulates the core engine responsible for table
// management, compaction and query execution, plus the configuration
// options this particular instance was opened with.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// Open creates and initializes a new tuntundb Instance, creating its data
// directory if it does not already exist.
func Open(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// ExecuteQuery runs a single structured query object — the CREATE, CREATE
// ... FROM FILE, INSERT, SELECT, DELETE or DROP shape described by the
// engine's query object schema — and returns the command result shape.
// No query-level failure is ever returned as an error here: it is folded
// into the result's {status:"error", message} form. The error return is
// reserved for conditions outside query execution itself, such as a
// canceled context or an Instance that has already been closed.
func (i *Instance) ExecuteQuery(ctx context.Context, q map[string]any) (map[string]any, error) {
	return i.engine.ExecuteQuery(ctx, q)
}

// Close gracefully shuts down the Instance, releasing every open heap and
// index file handle across every table that was touched during its
// lifetime.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
