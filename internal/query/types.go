// Package query dispatches structured query objects — the engine's only
// input shape, since the textual SQL parser and HTTP frontend are both
// external collaborators — to the command handler for CREATE, INSERT,
// SELECT, DELETE and DROP. It binds the table manager, the compactor and
// the codec together into the single entry point pkg/tuntundb calls.
package query

// Filter is one predicate entry from a SELECT or DELETE query object's
// "filters" list.
type Filter struct {
	Column         string
	Operation      string // "=" or "BETWEEN"
	Value          any
	From           any
	To             any
	RequestedIndex string
}

// ColumnSpec is one entry from a CREATE query object's "columns" list,
// still in its string-typed meta.json form.
type ColumnSpec struct {
	Name string
	Type string
}
