package query

import (
	"go.uber.org/zap"

	"github.com/iamNilotpal/tuntundb/internal/compaction"
	"github.com/iamNilotpal/tuntundb/internal/table"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
	"github.com/iamNilotpal/tuntundb/pkg/options"
)

// Runner dispatches a structured query object to the handler for its
// "type" field. It is the single place the engine maps every failure,
// no matter which subsystem raised it, onto {status, message}: no
// exceptions escape Execute, matching the failure model's Runner row.
type Runner struct {
	manager   *table.Manager
	compactor *compaction.Compactor
	opts      *options.Options
	log       *zap.SugaredLogger
}

// Config bundles a Runner's dependencies.
type Config struct {
	Manager   *table.Manager
	Compactor *compaction.Compactor
	Options   *options.Options
	Logger    *zap.SugaredLogger
}

// New constructs a Runner over an already-initialized table manager and
// compactor.
func New(cfg *Config) (*Runner, error) {
	if cfg == nil || cfg.Manager == nil || cfg.Compactor == nil || cfg.Options == nil {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "invalid query runner configuration")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Runner{manager: cfg.Manager, compactor: cfg.Compactor, opts: cfg.Options, log: log.Named("query")}, nil
}

// Execute runs a single structured query object and returns the command
// result shape from spec.md §6: {status, message?, records?, columns?,
// table_name?}. Every handler error, including an unrecognized command
// type, is caught here and rendered as {status:"error", message}.
func (r *Runner) Execute(q map[string]any) map[string]any {
	result, err := r.dispatch(q)
	if err != nil {
		r.log.Errorw("query failed", "error", err)
		return map[string]any{"status": "error", "message": err.Error()}
	}

	if result == nil {
		result = map[string]any{}
	}
	result["status"] = "success"
	return result
}

func (r *Runner) dispatch(q map[string]any) (map[string]any, error) {
	cmdType, err := getString(q, "type")
	if err != nil {
		return nil, err
	}

	switch cmdType {
	case "CREATE":
		return r.create(q)
	case "INSERT":
		return r.insert(q)
	case "SELECT":
		return r.selectRows(q)
	case "DELETE":
		return r.delete(q)
	case "DROP":
		return r.drop(q)
	case "UPDATE":
		return nil, errors.NewNotImplementedError("UPDATE")
	default:
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "unknown command type").
			WithField("type").WithProvided(cmdType)
	}
}
