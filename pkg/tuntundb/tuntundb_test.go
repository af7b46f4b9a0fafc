package tuntundb

import (
	"context"
	"testing"

	"github.com/iamNilotpal/tuntundb/pkg/options"
)

func TestInstanceCreateInsertSelect(t *testing.T) {
	ctx := context.Background()
	instance, err := Open(ctx, "test", options.WithDataDir(t.TempDir()), options.WithPageSize(80))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer instance.Close(ctx)

	createResult, err := instance.ExecuteQuery(ctx, map[string]any{
		"type":       "CREATE",
		"table_name": "users",
		"columns": []any{
			map[string]any{"name": "id", "type": "INT"},
			map[string]any{"name": "name", "type": "VARCHAR[16]"},
		},
		"primary_key": "id",
	})
	if err != nil {
		t.Fatalf("ExecuteQuery CREATE: %v", err)
	}
	if createResult["status"] != "success" {
		t.Fatalf("CREATE failed: %v", createResult)
	}

	insertResult, err := instance.ExecuteQuery(ctx, map[string]any{
		"type":       "INSERT",
		"table_name": "users",
		"values":     []any{float64(1), "alice"},
	})
	if err != nil {
		t.Fatalf("ExecuteQuery INSERT: %v", err)
	}
	if insertResult["status"] != "success" {
		t.Fatalf("INSERT failed: %v", insertResult)
	}

	selectResult, err := instance.ExecuteQuery(ctx, map[string]any{"type": "SELECT", "table_name": "users"})
	if err != nil {
		t.Fatalf("ExecuteQuery SELECT: %v", err)
	}
	records, ok := selectResult["records"].([][]any)
	if !ok || len(records) != 1 {
		t.Fatalf("expected 1 record, got %v", selectResult["records"])
	}
}

func TestInstanceCloseIsIdempotentError(t *testing.T) {
	ctx := context.Background()
	instance, err := Open(ctx, "test", options.WithDataDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := instance.Close(ctx); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := instance.Close(ctx); err == nil {
		t.Fatal("expected second Close to report the engine is already closed")
	}
}

func TestExecuteQueryAfterCloseFails(t *testing.T) {
	ctx := context.Background()
	instance, err := Open(ctx, "test", options.WithDataDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := instance.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := instance.ExecuteQuery(ctx, map[string]any{"type": "SELECT", "table_name": "users"}); err == nil {
		t.Fatal("expected ExecuteQuery after Close to return an error")
	}
}
