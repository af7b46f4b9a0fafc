package query

import (
	"github.com/iamNilotpal/tuntundb/internal/table"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
)

// create dispatches a CREATE query object: an explicit column list
// creates an empty table, while `from_file:true` with a `file_path`
// instead bulk-loads from CSV, inferring the schema and primary key per
// spec.md §4.7.
func (r *Runner) create(q map[string]any) (map[string]any, error) {
	name, err := getString(q, "table_name")
	if err != nil {
		return nil, err
	}

	if getBool(q, "from_file") {
		filePath, err := getString(q, "file_path")
		if err != nil {
			return nil, err
		}
		return r.createFromFile(name, filePath)
	}

	specs, err := getColumnSpecs(q, "columns")
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, errors.NewRequiredFieldError("columns")
	}

	indexes, err := getStringMap(q, "indexes")
	if err != nil {
		return nil, err
	}

	primaryKey := getOptionalString(q, "primary_key")
	if primaryKey == "" {
		primaryKey = specs[0].Name
	}

	columns := make([]table.ColumnDescriptor, len(specs))
	for i, c := range specs {
		columns[i] = table.ColumnDescriptor{Name: c.Name, Type: c.Type}
	}

	if _, err := r.manager.CreateTable(name, columns, primaryKey); err != nil {
		return nil, err
	}

	for column := range indexes {
		if column == primaryKey {
			continue
		}
		if err := r.manager.CreateIndex(name, column); err != nil {
			return nil, err
		}
	}

	r.log.Infow("created table via query", "table", name, "primaryKey", primaryKey, "columns", len(columns), "indexes", len(indexes))
	return map[string]any{"table_name": name, "message": "table created successfully"}, nil
}
