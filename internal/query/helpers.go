package query

import "github.com/iamNilotpal/tuntundb/pkg/errors"

// getString reads a required string field from a decoded query object.
func getString(q map[string]any, key string) (string, error) {
	v, ok := q[key]
	if !ok {
		return "", errors.NewRequiredFieldError(key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.NewFieldFormatError(key, v, "non-empty string")
	}
	return s, nil
}

// getOptionalString reads a string field, returning "" if absent or of
// the wrong type.
func getOptionalString(q map[string]any, key string) string {
	if v, ok := q[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getBool reads a bool field, defaulting to false.
func getBool(q map[string]any, key string) bool {
	if v, ok := q[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// getColumnSpecs parses a CREATE query object's "columns" list, each
// entry the {name, type} shape of spec.md §6.
func getColumnSpecs(q map[string]any, key string) ([]ColumnSpec, error) {
	raw, ok := q[key]
	if !ok {
		return nil, errors.NewRequiredFieldError(key)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.NewFieldFormatError(key, raw, "list of {name,type} objects")
	}

	out := make([]ColumnSpec, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.NewFieldFormatError(key, item, "{name,type} object")
		}
		name, _ := m["name"].(string)
		typ, _ := m["type"].(string)
		if name == "" || typ == "" {
			return nil, errors.NewFieldFormatError(key, item, "{name,type} object with both fields set")
		}
		out = append(out, ColumnSpec{Name: name, Type: typ})
	}
	return out, nil
}

// getStringSlice reads a list-of-strings field, skipping any non-string
// entries rather than failing outright. No command handler calls it:
// SELECT ignores a "columns" field and returns every stored column.
func getStringSlice(q map[string]any, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// getValues reads an INSERT query object's required "values" list,
// returned in column order exactly as decoded from JSON.
func getValues(q map[string]any) ([]any, error) {
	raw, ok := q["values"]
	if !ok {
		return nil, errors.NewRequiredFieldError("values")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.NewFieldFormatError("values", raw, "list")
	}
	return list, nil
}

// getFilters parses a SELECT/DELETE query object's optional "filters"
// list.
func getFilters(q map[string]any) ([]Filter, error) {
	raw, ok := q["filters"]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.NewFieldFormatError("filters", raw, "list of filter objects")
	}

	out := make([]Filter, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.NewFieldFormatError("filters", item, "filter object")
		}
		out = append(out, Filter{
			Column:         asStr(m["column"]),
			Operation:      asStr(m["operation"]),
			Value:          m["value"],
			From:           m["from"],
			To:             m["to"],
			RequestedIndex: asStr(m["requested_index"]),
		})
	}
	return out, nil
}

// getStringMap parses a CREATE query object's optional "indexes" field,
// the `{col→kind}` map of spec.md line 173: one entry per secondary index
// to build alongside the table. Only the column names are load-bearing
// today — every index is a B+ tree regardless of the declared kind — so
// the value is returned as-is for callers that want it without being
// required to be a string.
func getStringMap(q map[string]any, key string) (map[string]string, error) {
	raw, ok := q[key]
	if !ok {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.NewFieldFormatError(key, raw, "map of column name to index kind")
	}

	out := make(map[string]string, len(m))
	for col, kind := range m {
		k, _ := kind.(string)
		out[col] = k
	}
	return out, nil
}

func asStr(v any) string {
	s, _ := v.(string)
	return s
}
