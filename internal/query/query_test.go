package query

import (
	"testing"

	"github.com/iamNilotpal/tuntundb/internal/compaction"
	"github.com/iamNilotpal/tuntundb/internal/table"
	"github.com/iamNilotpal/tuntundb/pkg/options"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()

	m, err := table.NewManager(&table.Config{DataDir: t.TempDir(), PageSize: 80})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	c, err := compaction.New(&compaction.Config{Manager: m, PageSize: 80})
	if err != nil {
		t.Fatalf("compaction.New: %v", err)
	}

	opts := options.NewDefaultOptions()
	opts.CompactionThreshold = 0.2

	r, err := New(&Config{Manager: m, Compactor: c, Options: &opts})
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return r
}

func createUsersTable(t *testing.T, r *Runner) {
	t.Helper()
	result := r.Execute(map[string]any{
		"type":       "CREATE",
		"table_name": "users",
		"columns": []any{
			map[string]any{"name": "id", "type": "INT"},
			map[string]any{"name": "name", "type": "VARCHAR[16]"},
		},
		"primary_key": "id",
	})
	if result["status"] != "success" {
		t.Fatalf("CREATE failed: %v", result)
	}
}

func insertUser(t *testing.T, r *Runner, id int, name string) map[string]any {
	t.Helper()
	return r.Execute(map[string]any{
		"type":       "INSERT",
		"table_name": "users",
		"values":     []any{float64(id), name},
	})
}

func TestExecuteCreateInsertSelect(t *testing.T) {
	r := newTestRunner(t)
	createUsersTable(t, r)

	for i, name := range []string{"alice", "bob", "carol"} {
		if res := insertUser(t, r, i, name); res["status"] != "success" {
			t.Fatalf("INSERT %d failed: %v", i, res)
		}
	}

	result := r.Execute(map[string]any{"type": "SELECT", "table_name": "users"})
	if result["status"] != "success" {
		t.Fatalf("SELECT failed: %v", result)
	}
	records, ok := result["records"].([][]any)
	if !ok {
		t.Fatalf("expected [][]any records, got %T", result["records"])
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestExecuteInsertDuplicatePrimaryKeyFails(t *testing.T) {
	r := newTestRunner(t)
	createUsersTable(t, r)

	if res := insertUser(t, r, 1, "alice"); res["status"] != "success" {
		t.Fatalf("first INSERT failed: %v", res)
	}
	res := insertUser(t, r, 1, "duplicate")
	if res["status"] != "error" {
		t.Fatalf("expected duplicate key INSERT to fail, got %v", res)
	}
}

func TestExecuteSelectEqualityOnIndexedColumn(t *testing.T) {
	r := newTestRunner(t)
	createUsersTable(t, r)
	for i, name := range []string{"alice", "bob", "carol"} {
		insertUser(t, r, i, name)
	}

	result := r.Execute(map[string]any{
		"type":       "SELECT",
		"table_name": "users",
		"filters":    []any{map[string]any{"column": "id", "operation": "=", "value": float64(1)}},
	})
	if result["status"] != "success" {
		t.Fatalf("SELECT failed: %v", result)
	}
	records := result["records"].([][]any)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0][1] != "bob" {
		t.Fatalf("expected bob, got %v", records[0][1])
	}
}

func TestExecuteDeleteRequiresIndexedColumn(t *testing.T) {
	r := newTestRunner(t)
	createUsersTable(t, r)
	insertUser(t, r, 1, "alice")

	res := r.Execute(map[string]any{
		"type":       "DELETE",
		"table_name": "users",
		"filters":    []any{map[string]any{"column": "name", "operation": "=", "value": "alice"}},
	})
	if res["status"] != "error" {
		t.Fatalf("expected DELETE on unindexed column to fail, got %v", res)
	}
}

func TestExecuteDeleteByPrimaryKeyIsIdempotent(t *testing.T) {
	r := newTestRunner(t)
	createUsersTable(t, r)
	insertUser(t, r, 1, "alice")

	res := r.Execute(map[string]any{
		"type":       "DELETE",
		"table_name": "users",
		"filters":    []any{map[string]any{"column": "id", "operation": "=", "value": float64(1)}},
	})
	if res["status"] != "success" {
		t.Fatalf("DELETE failed: %v", res)
	}
	if res["deleted"] != int64(1) {
		t.Fatalf("expected 1 row deleted, got %v", res["deleted"])
	}

	res = r.Execute(map[string]any{
		"type":       "DELETE",
		"table_name": "users",
		"filters":    []any{map[string]any{"column": "id", "operation": "=", "value": float64(1)}},
	})
	if res["status"] != "success" || res["deleted"] != int64(0) {
		t.Fatalf("expected idempotent no-op delete, got %v", res)
	}

	sel := r.Execute(map[string]any{"type": "SELECT", "table_name": "users"})
	if len(sel["records"].([][]any)) != 0 {
		t.Fatalf("expected no live records after delete, got %v", sel["records"])
	}
}

func TestExecuteDropTable(t *testing.T) {
	r := newTestRunner(t)
	createUsersTable(t, r)

	res := r.Execute(map[string]any{"type": "DROP", "table_name": "users"})
	if res["status"] != "success" {
		t.Fatalf("DROP failed: %v", res)
	}

	res = r.Execute(map[string]any{"type": "SELECT", "table_name": "users"})
	if res["status"] != "error" {
		t.Fatalf("expected SELECT on dropped table to fail, got %v", res)
	}
}

func TestExecuteUnknownCommandType(t *testing.T) {
	r := newTestRunner(t)
	res := r.Execute(map[string]any{"type": "MERGE"})
	if res["status"] != "error" {
		t.Fatalf("expected unknown command type to report error, got %v", res)
	}
}

func TestExecuteUpdateNotImplemented(t *testing.T) {
	r := newTestRunner(t)
	res := r.Execute(map[string]any{"type": "UPDATE", "table_name": "users"})
	if res["status"] != "error" {
		t.Fatalf("expected UPDATE to report not-implemented error, got %v", res)
	}
}
