package bplustree

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/iamNilotpal/tuntundb/internal/codec"
)

func intKey(n int32) codec.Key { return codec.EncodeKey(codec.IntValue(n)) }

func openTestTree(t *testing.T, pageSize int) *BPlusTree {
	t.Helper()
	dir := t.TempDir()
	tree, err := Open(&Config{Path: filepath.Join(dir, "test.idx"), PageSize: pageSize})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { tree.Close() })
	return tree
}

func TestInsertAndSearchSingleEntry(t *testing.T) {
	tree := openTestTree(t, 4096)

	if err := tree.Insert(intKey(5), 100); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	results, err := tree.Search(intKey(5))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0] != 100 {
		t.Fatalf("expected [100], got %v", results)
	}

	results, err = tree.Search(intKey(6))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for missing key, got %v", results)
	}
}

func TestInsertForcesSplitsAndStaysSearchable(t *testing.T) {
	tree := openTestTree(t, 80) // capacity 3, forces splits quickly

	const n = 200
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(intKey(i), int64(i)*10); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	for i := int32(0); i < n; i++ {
		results, err := tree.Search(intKey(i))
		if err != nil {
			t.Fatalf("Search(%d): %v", i, err)
		}
		if len(results) != 1 || results[0] != int64(i)*10 {
			t.Fatalf("key %d: expected [%d], got %v", i, int64(i)*10, results)
		}
	}
}

func TestInsertPermitsDuplicateKeys(t *testing.T) {
	tree := openTestTree(t, 80)

	if err := tree.Insert(intKey(7), 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Insert(intKey(7), 2); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Insert(intKey(7), 3); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	results, err := tree.Search(intKey(7))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	if len(results) != 3 || results[0] != 1 || results[1] != 2 || results[2] != 3 {
		t.Fatalf("expected [1 2 3], got %v", results)
	}
}

func TestRangeSearchAcrossSplits(t *testing.T) {
	tree := openTestTree(t, 80)

	for i := int32(0); i < 100; i++ {
		if err := tree.Insert(intKey(i), int64(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	results, err := tree.RangeSearch(intKey(20), intKey(29))
	if err != nil {
		t.Fatalf("RangeSearch: %v", err)
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d: %v", len(results), results)
	}
	for i, v := range results {
		if v != int64(20+i) {
			t.Fatalf("expected %d at position %d, got %d", 20+i, i, v)
		}
	}
}

func TestScanAllReturnsEverythingInKeyOrder(t *testing.T) {
	tree := openTestTree(t, 80)

	order := []int32{50, 10, 30, 90, 20, 70}
	for _, k := range order {
		if err := tree.Insert(intKey(k), int64(k)); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	results, err := tree.ScanAll()
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(results) != len(order) {
		t.Fatalf("expected %d results, got %d", len(order), len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1] > results[i] {
			t.Fatalf("expected ascending key order, got %v", results)
		}
	}
}

func TestDeleteRemovesOnlyMatchingEntry(t *testing.T) {
	tree := openTestTree(t, 80)

	if err := tree.Insert(intKey(1), 10); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Insert(intKey(1), 20); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	found, err := tree.Delete(intKey(1), 10)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !found {
		t.Fatal("expected Delete to report the entry was found")
	}

	results, err := tree.Search(intKey(1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0] != 20 {
		t.Fatalf("expected [20] to survive, got %v", results)
	}

	found, err = tree.Delete(intKey(1), 999)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if found {
		t.Fatal("expected Delete of a non-existent ptr to report not found")
	}
}

func TestDeleteThroughManySplitsStaysConsistent(t *testing.T) {
	tree := openTestTree(t, 80)

	const n = 150
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(intKey(i), int64(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	// Delete every third key, forcing repeated borrow/merge rebalancing.
	var deleted []int32
	for i := int32(0); i < n; i += 3 {
		found, err := tree.Delete(intKey(i), int64(i))
		if err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
		if !found {
			t.Fatalf("expected key %d to be found for deletion", i)
		}
		deleted = append(deleted, i)
	}

	deletedSet := make(map[int32]bool)
	for _, k := range deleted {
		deletedSet[k] = true
	}

	for i := int32(0); i < n; i++ {
		results, err := tree.Search(intKey(i))
		if err != nil {
			t.Fatalf("Search(%d): %v", i, err)
		}
		if deletedSet[i] {
			if len(results) != 0 {
				t.Fatalf("expected key %d to be gone, found %v", i, results)
			}
		} else {
			if len(results) != 1 || results[0] != int64(i) {
				t.Fatalf("expected key %d to survive as [%d], got %v", i, i, results)
			}
		}
	}
}

func TestBuildFromDataPopulatesTree(t *testing.T) {
	tree := openTestTree(t, 80)

	pairs := []struct {
		key codec.Key
		ptr int64
	}{
		{intKey(3), 30}, {intKey(1), 10}, {intKey(2), 20}, {intKey(4), 40},
	}
	i := 0
	err := tree.BuildFromData(func() (codec.Key, int64, bool, error) {
		if i >= len(pairs) {
			return codec.Key{}, 0, false, nil
		}
		p := pairs[i]
		i++
		return p.key, p.ptr, true, nil
	})
	if err != nil {
		t.Fatalf("BuildFromData: %v", err)
	}

	for _, p := range pairs {
		results, err := tree.Search(p.key)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 || results[0] != p.ptr {
			t.Fatalf("expected [%d], got %v", p.ptr, results)
		}
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.idx")

	tree, err := Open(&Config{Path: path, PageSize: 80})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := int32(0); i < 50; i++ {
		if err := tree.Insert(intKey(i), int64(i)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(&Config{Path: path, PageSize: 80})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	for i := int32(0); i < 50; i++ {
		results, err := reopened.Search(intKey(i))
		if err != nil {
			t.Fatalf("Search(%d): %v", i, err)
		}
		if len(results) != 1 || results[0] != int64(i) {
			t.Fatalf("key %d not found after reopen: %v", i, results)
		}
	}
}
