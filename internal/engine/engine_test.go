package engine

import (
	"context"
	"testing"

	"github.com/iamNilotpal/tuntundb/pkg/options"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.PageSize = 80

	e, err := New(context.Background(), &Config{Options: &opts})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestEngineExecuteQueryRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	result, err := e.ExecuteQuery(ctx, map[string]any{
		"type":       "CREATE",
		"table_name": "t",
		"columns":    []any{map[string]any{"name": "id", "type": "INT"}},
		"primary_key": "id",
	})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if result["status"] != "success" {
		t.Fatalf("CREATE failed: %v", result)
	}
}

func TestEngineClosedRejectsQueries(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := e.ExecuteQuery(context.Background(), map[string]any{"type": "SELECT"}); err != ErrEngineClosed {
		t.Fatalf("expected ErrEngineClosed, got %v", err)
	}
	if err := e.Close(); err != ErrEngineClosed {
		t.Fatalf("expected second Close to return ErrEngineClosed, got %v", err)
	}
}
