package query

import (
	"reflect"

	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/internal/table"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
)

// selectRows answers a SELECT, choosing among three access paths per
// spec.md §4.7: no filter scans the whole heap, a filter on an indexed
// column uses the index (equality or range), and a filter on any other
// column falls back to a full scan with an in-memory predicate.
func (r *Runner) selectRows(q map[string]any) (map[string]any, error) {
	name, err := getString(q, "table_name")
	if err != nil {
		return nil, err
	}

	h, err := r.manager.Open(name)
	if err != nil {
		return nil, err
	}
	schema, err := h.Descriptor.Schema()
	if err != nil {
		return nil, err
	}

	filters, err := getFilters(q)
	if err != nil {
		return nil, err
	}

	var rows [][]any
	if len(filters) == 0 {
		rows, err = scanAll(h)
	} else {
		rows, err = scanFiltered(h, schema, name, filters[0])
	}
	if err != nil {
		return nil, err
	}

	columnNames := make([]string, len(schema))
	for i, c := range schema {
		columnNames[i] = c.Name
	}

	return map[string]any{
		"table_name": name,
		"columns":    columnNames,
		"records":    rows,
	}, nil
}

func scanAll(h *table.Handle) ([][]any, error) {
	var rows [][]any
	err := h.Heap.Scan(func(_ int64, tombstoned bool, values []codec.Value) (bool, error) {
		if tombstoned {
			return true, nil
		}
		rows = append(rows, valuesToRow(values))
		return true, nil
	})
	return rows, err
}

func scanFiltered(h *table.Handle, schema codec.Schema, tableName string, f Filter) ([][]any, error) {
	colIdx := schema.IndexOf(f.Column)
	if colIdx == -1 {
		return nil, errors.NewNoSuchColumnError(tableName, f.Column)
	}
	colType := schema[colIdx].Type

	if tree, ok := h.Indexes[f.Column]; ok {
		switch f.Operation {
		case "=":
			key, err := filterKey(colType, f.Value)
			if err != nil {
				return nil, err
			}
			offsets, err := tree.Search(key)
			if err != nil {
				return nil, err
			}
			return liveRowsAt(h, offsets)

		case "BETWEEN":
			lo, err := filterKey(colType, f.From)
			if err != nil {
				return nil, err
			}
			hi, err := filterKey(colType, f.To)
			if err != nil {
				return nil, err
			}
			offsets, err := tree.RangeSearch(lo, hi)
			if err != nil {
				return nil, err
			}
			return liveRowsAt(h, offsets)
		}
	}

	// No index on this column (or an operation the index can't serve):
	// fall back to a full scan with an in-memory predicate.
	var rows [][]any
	err := h.Heap.Scan(func(_ int64, tombstoned bool, values []codec.Value) (bool, error) {
		if tombstoned {
			return true, nil
		}
		matched, err := matchesFilter(values[colIdx], colType, f)
		if err != nil {
			return false, err
		}
		if matched {
			rows = append(rows, valuesToRow(values))
		}
		return true, nil
	})
	return rows, err
}

func liveRowsAt(h *table.Handle, offsets []int64) ([][]any, error) {
	var rows [][]any
	for _, off := range offsets {
		tombstoned, values, err := h.Heap.ReadAt(off)
		if err != nil {
			return nil, err
		}
		if !tombstoned {
			rows = append(rows, valuesToRow(values))
		}
	}
	return rows, nil
}

func valuesToRow(values []codec.Value) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v.ToAny()
	}
	return row
}

func filterKey(ct codec.ColumnType, raw any) (codec.Key, error) {
	v, err := codec.CoerceValue(raw, ct)
	if err != nil {
		return codec.Key{}, errors.NewValidationError(err, errors.ErrorCodeInvalidInput, "filter value does not match column type").
			WithProvided(raw).WithExpected(ct.String())
	}
	return codec.EncodeKey(v), nil
}

func matchesFilter(actual codec.Value, ct codec.ColumnType, f Filter) (bool, error) {
	switch f.Operation {
	case "=":
		want, err := codec.CoerceValue(f.Value, ct)
		if err != nil {
			return false, err
		}
		return reflect.DeepEqual(actual, want), nil
	case "BETWEEN":
		lo, err := codec.CoerceValue(f.From, ct)
		if err != nil {
			return false, err
		}
		hi, err := codec.CoerceValue(f.To, ct)
		if err != nil {
			return false, err
		}
		actualKey, loKey, hiKey := codec.EncodeKey(actual), codec.EncodeKey(lo), codec.EncodeKey(hi)
		return !actualKey.Less(loKey) && !hiKey.Less(actualKey), nil
	default:
		return false, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "unsupported filter operation").
			WithField("operation").WithProvided(f.Operation)
	}
}
