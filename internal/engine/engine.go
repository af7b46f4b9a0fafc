// Package engine provides the core database engine implementation for the
// tuntundb storage system.
//
// The engine serves as the central coordinator and entry point for all
// database operations. It orchestrates the interaction between three main
// subsystems:
//   - Table manager: owns every table's on-disk directory, meta.json
//     descriptor, heap file and index files
//   - Compactor: rewrites a table's heap and indexes in lockstep, invoked
//     inline by the query runner rather than as a background task
//   - Query runner: dispatches a structured query object to its command
//     handler and never lets a raw error escape
//
// The engine manages the lifecycle of these subsystems, building them in
// dependency order and releasing them on Close. Its closed flag is an
// atomic.Bool, so concurrent Close calls are safe and only one succeeds;
// query execution itself takes no lock, so concurrent queries against
// the same table are not serialized.
package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iamNilotpal/tuntundb/internal/compaction"
	"github.com/iamNilotpal/tuntundb/internal/query"
	"github.com/iamNilotpal/tuntundb/internal/table"
	"github.com/iamNilotpal/tuntundb/pkg/options"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// Engine represents the main database engine that coordinates all subsystems.
// It acts as the primary interface for database operations and manages the
// lifecycle of all internal components. The table manager's mutex guards
// only the manager's own calls, not a whole query, so the engine does not
// serialize concurrent queries; closed guards against reentrant
// double-close.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	manager   *table.Manager
	compactor *compaction.Compactor
	runner    *query.Runner
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates and initializes a new Engine instance with the provided
// configuration. This constructor follows the dependency injection pattern,
// making the engine testable and allowing for different configurations in
// different environments.
//
// Subsystems are built in dependency order: the table manager first, since
// it owns the on-disk state nothing else can function without; the
// compactor next, since it depends on the manager; the query runner last,
// since it depends on both.
func New(ctx context.Context, config *Config) (*Engine, error) {
	manager, err := table.NewManager(&table.Config{
		DataDir:  config.Options.DataDir,
		PageSize: config.Options.PageSize,
		Logger:   config.Logger,
	})
	if err != nil {
		return nil, err
	}

	compactor, err := compaction.New(&compaction.Config{
		Manager:  manager,
		PageSize: config.Options.PageSize,
		Logger:   config.Logger,
	})
	if err != nil {
		manager.Close()
		return nil, err
	}

	runner, err := query.New(&query.Config{
		Manager:   manager,
		Compactor: compactor,
		Options:   config.Options,
		Logger:    config.Logger,
	})
	if err != nil {
		manager.Close()
		return nil, err
	}

	return &Engine{
		options:   config.Options,
		log:       config.Logger,
		manager:   manager,
		compactor: compactor,
		runner:    runner,
	}, nil
}

// ExecuteQuery runs one structured query object through the query runner.
// The runner itself never returns a raw error for a query-level failure —
// those are folded into the {status:"error", message} result shape — so
// the error return here is reserved for engine-level conditions outside
// the query's own execution, such as the engine having already been
// closed.
func (e *Engine) ExecuteQuery(ctx context.Context, q map[string]any) (map[string]any, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.runner.Execute(q), nil
}

// Close marks the engine closed and closes every table handle the manager
// holds open. It does not wait for queries already running on other
// goroutines.
func (e *Engine) Close() error {
	// Use atomic compare-and-swap to transition from open (false) to closed
	// (true). This operation is atomic and thread-safe, ensuring only one
	// goroutine can successfully close the engine.
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}
	return e.manager.Close()
}
