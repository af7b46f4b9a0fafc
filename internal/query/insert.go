package query

import (
	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
)

// insert encodes and appends one row, enforcing the primary key
// uniqueness constraint before it touches the heap: if the primary
// key's index already has a live record under the same key, the whole
// operation fails with DuplicateKey and nothing is written.
func (r *Runner) insert(q map[string]any) (map[string]any, error) {
	name, err := getString(q, "table_name")
	if err != nil {
		return nil, err
	}
	rawValues, err := getValues(q)
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
	if len(rawValues) != len(schema) {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "value count does not match schema").
			WithField("values").WithProvided(len(rawValues)).WithExpected(len(schema))
	}

	values := make([]codec.Value, len(schema))
	for i, col := range schema {
		v, err := codec.CoerceValue(rawValues[i], col.Type)
		if err != nil {
			return nil, errors.NewValidationError(err, errors.ErrorCodeInvalidInput, "value does not match column type").
				WithField(col.Name).WithProvided(rawValues[i]).WithExpected(col.Type.String())
		}
		values[i] = v
	}

	primaryKey := h.Descriptor.PrimaryKey
	if primaryKey != "" {
		pkIdx := schema.IndexOf(primaryKey)
		if pkIdx == -1 {
			return nil, errors.NewNoSuchColumnError(name, primaryKey)
		}
		tree, ok := h.Indexes[primaryKey]
		if !ok {
			return nil, errors.NewTableError(nil, errors.ErrorCodeCorruptMeta, "primary key has no index").
				WithTable(name).WithColumn(primaryKey)
		}

		key := codec.EncodeKey(values[pkIdx])
		matches, err := tree.Search(key)
		if err != nil {
			return nil, err
		}
		for _, offset := range matches {
			tombstoned, _, err := h.Heap.ReadAt(offset)
			if err != nil {
				return nil, err
			}
			if !tombstoned {
				return nil, errors.NewDuplicateKeyError(name, primaryKey, rawValues[pkIdx])
			}
		}
	}

	offset, err := h.Heap.Append(values)
	if err != nil {
		return nil, err
	}

	for col, tree := range h.Indexes {
		colIdx := schema.IndexOf(col)
		if colIdx == -1 {
			continue
		}
		if err := tree.Insert(codec.EncodeKey(values[colIdx]), offset); err != nil {
			return nil, err
		}
	}

	if err := r.manager.UpdateStats(name, 1, 0); err != nil {
		return nil, err
	}

	r.log.Debugw("inserted record", "table", name, "offset", offset)
	return map[string]any{"table_name": name, "message": "record inserted successfully"}, nil
}
