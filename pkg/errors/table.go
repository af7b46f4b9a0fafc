package errors

// TableError is a specialized error type for table-lifecycle and query-layer
// failures: missing/existing tables, schema mismatches, duplicate primary
// keys, and commands that require an index they weren't given. It embeds
// baseError to inherit the standard chaining and detail behavior.
type TableError struct {
	*baseError

	// table names the table the operation was acting on.
	table string

	// column names the offending column, when the error concerns one.
	column string
}

// NewTableError creates a new table-specific error.
func NewTableError(err error, code ErrorCode, msg string) *TableError {
	return &TableError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the TableError type.
func (te *TableError) WithMessage(msg string) *TableError {
	te.baseError.WithMessage(msg)
	return te
}

// WithCode sets the error code while preserving the TableError type.
func (te *TableError) WithCode(code ErrorCode) *TableError {
	te.baseError.WithCode(code)
	return te
}

// WithDetail adds contextual information while preserving the TableError type.
func (te *TableError) WithDetail(key string, value any) *TableError {
	te.baseError.WithDetail(key, value)
	return te
}

// WithTable records which table the operation concerned.
func (te *TableError) WithTable(table string) *TableError {
	te.table = table
	return te
}

// WithColumn records which column the operation concerned.
func (te *TableError) WithColumn(column string) *TableError {
	te.column = column
	return te
}

// Table returns the table name associated with the error.
func (te *TableError) Table() string {
	return te.table
}

// Column returns the column name associated with the error, if any.
func (te *TableError) Column() string {
	return te.column
}

// NewNoSuchTableError builds the standard "table not found" error.
func NewNoSuchTableError(table string) *TableError {
	return NewTableError(nil, ErrorCodeNoSuchTable, "table does not exist").WithTable(table)
}

// NewTableExistsError builds the standard "table already exists" error.
func NewTableExistsError(table string) *TableError {
	return NewTableError(nil, ErrorCodeTableExists, "table already exists").WithTable(table)
}

// NewNoSuchColumnError builds the standard "column not found" error.
func NewNoSuchColumnError(table, column string) *TableError {
	return NewTableError(nil, ErrorCodeNoSuchColumn, "column does not exist").
		WithTable(table).
		WithColumn(column)
}

// NewDuplicateKeyError builds the standard primary-key-collision error.
func NewDuplicateKeyError(table, column string, value any) *TableError {
	return NewTableError(nil, ErrorCodeDuplicateKey, "primary key already exists").
		WithTable(table).
		WithColumn(column).
		WithDetail("value", value)
}

// NewNotFoundError builds the standard "no matching row" error for
// DELETE/UPDATE targets.
func NewNotFoundError(table, column string) *TableError {
	return NewTableError(nil, ErrorCodeNotFound, "no row matches the given filter").
		WithTable(table).
		WithColumn(column)
}

// NewRequiresIndexError builds the error returned when DELETE targets a
// column without an index.
func NewRequiresIndexError(table, column string) *TableError {
	return NewTableError(nil, ErrorCodeRequiresIndex, "command requires an indexed column").
		WithTable(table).
		WithColumn(column)
}

// NewNotImplementedError builds the error for reserved/unimplemented
// command types (UPDATE).
func NewNotImplementedError(command string) *TableError {
	return NewTableError(nil, ErrorCodeNotImplemented, "command not implemented").
		WithDetail("command", command)
}

// NewCompactionPartialError builds the error returned when a compaction's
// file-swap phase fails partway through, leaving the table in a mixed
// old/new state. cause is the aggregated multierr.Errors() chain.
func NewCompactionPartialError(table string, cause error) *TableError {
	return NewTableError(cause, ErrorCodeCompactionPartial, "compaction left table in an inconsistent state").
		WithTable(table)
}
