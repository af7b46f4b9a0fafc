package query

// drop permanently deletes a table and every file it owns.
func (r *Runner) drop(q map[string]any) (map[string]any, error) {
	name, err := getString(q, "table_name")
	if err != nil {
		return nil, err
	}
	if err := r.manager.DropTable(name); err != nil {
		return nil, err
	}
	r.log.Infow("dropped table via query", "table", name)
	return map[string]any{"table_name": name, "message": "table dropped successfully"}, nil
}
