package pagefile

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestBlockCursorAppendReadWrite(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenBlockCursor(&BlockCursorConfig{Path: filepath.Join(dir, "tree.idx"), BlockSize: 16})
	if err != nil {
		t.Fatalf("OpenBlockCursor: %v", err)
	}
	defer c.Close()

	total, err := c.TotalBlocks()
	if err != nil || total != 0 {
		t.Fatalf("expected 0 blocks initially, got %d err %v", total, err)
	}

	a := bytes.Repeat([]byte{0xAA}, 16)
	id, err := c.AppendBlock(a)
	if err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected block id 0, got %d", id)
	}

	b := bytes.Repeat([]byte{0xBB}, 16)
	id2, err := c.AppendBlock(b)
	if err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	if id2 != 1 {
		t.Fatalf("expected block id 1, got %d", id2)
	}

	got, err := c.ReadBlock(0)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, a) {
		t.Fatalf("expected block 0 to equal original data")
	}

	overwrite := bytes.Repeat([]byte{0xCC}, 16)
	if err := c.WriteBlock(0, overwrite); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got, err = c.ReadBlock(0)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, overwrite) {
		t.Fatal("expected overwritten block to read back the new bytes")
	}

	total, err = c.TotalBlocks()
	if err != nil || total != 2 {
		t.Fatalf("expected 2 blocks, got %d err %v", total, err)
	}
}

func TestBlockCursorRejectsWrongSize(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenBlockCursor(&BlockCursorConfig{Path: filepath.Join(dir, "tree.idx"), BlockSize: 16})
	if err != nil {
		t.Fatalf("OpenBlockCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.AppendBlock([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error appending a block of the wrong size")
	}
}

func TestRecordCursorAppendReadWrite(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenRecordCursor(&RecordCursorConfig{Path: filepath.Join(dir, "data.bin"), RecordSize: 8})
	if err != nil {
		t.Fatalf("OpenRecordCursor: %v", err)
	}
	defer c.Close()

	r1 := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	idx, err := c.Append(r1)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected index 0, got %d", idx)
	}

	r2 := []byte{1, 1, 1, 1, 1, 1, 1, 1}
	if _, err := c.Append(r2); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := c.ReadAt(1)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, r2) {
		t.Fatal("expected record 1 to equal r2")
	}

	tombstoned := []byte{1, 1, 1, 1, 1, 1, 1, 1}
	tombstoned[0] = 1
	if err := c.WriteAt(1, tombstoned); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	total, err := c.TotalRecords()
	if err != nil || total != 2 {
		t.Fatalf("expected 2 records, got %d err %v", total, err)
	}
}

func TestRecordCursorScanVisitsInOrder(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenRecordCursor(&RecordCursorConfig{Path: filepath.Join(dir, "data.bin"), RecordSize: 4})
	if err != nil {
		t.Fatalf("OpenRecordCursor: %v", err)
	}
	defer c.Close()

	for i := byte(0); i < 5; i++ {
		if _, err := c.Append([]byte{i, i, i, i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	var seen []int64
	err = c.Scan(func(index int64, data []byte) (bool, error) {
		seen = append(seen, index)
		return true, nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 records visited, got %d", len(seen))
	}
	for i, idx := range seen {
		if idx != int64(i) {
			t.Fatalf("expected records visited in order, got %v", seen)
		}
	}
}

func TestRecordCursorScanStopsEarly(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenRecordCursor(&RecordCursorConfig{Path: filepath.Join(dir, "data.bin"), RecordSize: 4})
	if err != nil {
		t.Fatalf("OpenRecordCursor: %v", err)
	}
	defer c.Close()

	for i := byte(0); i < 5; i++ {
		if _, err := c.Append([]byte{i, i, i, i}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	count := 0
	err = c.Scan(func(index int64, data []byte) (bool, error) {
		count++
		return index < 1, nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected scan to stop after 2 records, got %d", count)
	}
}
