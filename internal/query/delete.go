package query

import (
	"github.com/iamNilotpal/tuntundb/pkg/errors"
)

// delete tombstones every live row matching an equality filter on an
// indexed column. A column with no index cannot be used, since there is
// no way to locate its rows without a full scan that the command layer
// does not perform on DELETE's behalf. A filter that matches nothing, or
// only already-tombstoned rows, is a success with zero rows affected:
// DELETE is idempotent.
//
// If deleting pushes the table's deletion ratio over the configured
// threshold, compaction runs inline before delete returns. A compaction
// failure is logged but does not turn the DELETE itself into an error:
// the rows are already tombstoned on disk, and the next DELETE that
// tombstones a row checks the ratio again.
func (r *Runner) delete(q map[string]any) (map[string]any, error) {
	name, err := getString(q, "table_name")
	if err != nil {
		return nil, err
	}
	filters, err := getFilters(q)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, errors.NewRequiredFieldError("filters")
	}
	f := filters[0]
	if f.Operation != "=" {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "DELETE only supports equality filters").
			WithField("operation").WithProvided(f.Operation)
	}

	h, err := r.manager.Open(name)
	if err != nil {
		return nil, err
	}
	schema, err := h.Descriptor.Schema()
	if err != nil {
		return nil, err
	}
	colIdx := schema.IndexOf(f.Column)
	if colIdx == -1 {
		return nil, errors.NewNoSuchColumnError(name, f.Column)
	}

	tree, ok := h.Indexes[f.Column]
	if !ok {
		return nil, errors.NewRequiresIndexError(name, f.Column)
	}

	key, err := filterKey(schema[colIdx].Type, f.Value)
	if err != nil {
		return nil, err
	}
	offsets, err := tree.Search(key)
	if err != nil {
		return nil, err
	}

	var deleted int64
	for _, off := range offsets {
		tombstoned, _, err := h.Heap.ReadAt(off)
		if err != nil {
			return nil, err
		}
		if tombstoned {
			continue
		}
		if err := h.Heap.Tombstone(off); err != nil {
			return nil, err
		}
		deleted++
	}

	if deleted == 0 {
		return map[string]any{"table_name": name, "deleted": int64(0), "message": "no matching rows"}, nil
	}

	if err := r.manager.UpdateStats(name, 0, deleted); err != nil {
		return nil, err
	}
	r.log.Debugw("deleted records", "table", name, "column", f.Column, "count", deleted)

	shouldCompact, err := r.manager.ShouldCompact(name, r.opts.CompactionThreshold)
	if err != nil {
		return nil, err
	}
	if shouldCompact {
		if _, err := r.compactor.Compact(name); err != nil {
			r.log.Errorw("inline compaction after delete failed", "table", name, "error", err)
		}
	}

	return map[string]any{"table_name": name, "deleted": deleted, "message": "records deleted successfully"}, nil
}
