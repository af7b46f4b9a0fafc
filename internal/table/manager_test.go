package table

import (
	"testing"

	"github.com/iamNilotpal/tuntundb/internal/codec"
)

func testColumns() []ColumnDescriptor {
	return []ColumnDescriptor{
		{Name: "id", Type: "INT"},
		{Name: "name", Type: "VARCHAR[16]"},
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(&Config{DataDir: t.TempDir(), PageSize: 80})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestCreateTableThenOpen(t *testing.T) {
	m := newTestManager(t)

	h, err := m.CreateTable("users", testColumns(), "id")
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if h.Descriptor.PrimaryKey != "id" {
		t.Fatalf("expected primary key id, got %s", h.Descriptor.PrimaryKey)
	}
	if _, ok := h.Indexes["id"]; !ok {
		t.Fatal("expected a primary index over id")
	}

	if !m.TableExists("users") {
		t.Fatal("expected TableExists to report true")
	}

	h2, err := m.Open("users")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if h2 != h {
		t.Fatal("expected Open to return the already-open handle")
	}
}

func TestCreateTableRejectsDuplicate(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.CreateTable("users", testColumns(), "id"); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := m.CreateTable("users", testColumns(), "id"); err == nil {
		t.Fatal("expected error creating a table that already exists")
	}
}

func TestOpenMissingTableReturnsNoSuchTable(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Open("ghost"); err == nil {
		t.Fatal("expected error opening a nonexistent table")
	}
}

func TestUpdateStatsAndShouldCompact(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.CreateTable("users", testColumns(), "id"); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	if err := m.UpdateStats("users", 10, 0); err != nil {
		t.Fatalf("UpdateStats: %v", err)
	}
	should, err := m.ShouldCompact("users", 0.2)
	if err != nil {
		t.Fatalf("ShouldCompact: %v", err)
	}
	if should {
		t.Fatal("expected no compaction needed with zero deletions")
	}

	if err := m.UpdateStats("users", 0, 5); err != nil {
		t.Fatalf("UpdateStats: %v", err)
	}
	should, err = m.ShouldCompact("users", 0.2)
	if err != nil {
		t.Fatalf("ShouldCompact: %v", err)
	}
	if !should {
		t.Fatal("expected compaction needed once deletion ratio exceeds threshold")
	}
}

func TestCreateIndexBuildsFromExistingRows(t *testing.T) {
	m := newTestManager(t)
	h, err := m.CreateTable("users", testColumns(), "id")
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	for i := int32(0); i < 5; i++ {
		if _, err := h.Heap.Append([]codec.Value{codec.IntValue(i), codec.VarcharValue("x")}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if err := m.CreateIndex("users", "name"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	h2, err := m.Open("users")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	tree, ok := h2.Indexes["name"]
	if !ok {
		t.Fatal("expected a name index to exist")
	}
	results, err := tree.Search(codec.EncodeKey(codec.VarcharValue("x")))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 entries indexed, got %d", len(results))
	}
}

func TestDropTableRemovesDirectoryAndRejectsTraversal(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.CreateTable("users", testColumns(), "id"); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	if err := m.DropTable("users"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if m.TableExists("users") {
		t.Fatal("expected table to no longer exist after drop")
	}

	if err := m.DropTable("../../etc"); err == nil {
		t.Fatal("expected DropTable to reject a path-traversal table name")
	}
}
