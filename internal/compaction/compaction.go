// Package compaction rewrites a table's heap and every declared index in
// lockstep, dropping tombstoned records and reclaiming the space they
// held. It is invoked inline by the query runner whenever a table's
// deletion ratio crosses the configured threshold after a DELETE, never
// as a background task: compaction and queries never interleave.
package compaction

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/tuntundb/internal/bplustree"
	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/internal/heap"
	"github.com/iamNilotpal/tuntundb/internal/table"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
)

// Compactor rewrites a table's on-disk files against only its live rows.
type Compactor struct {
	manager  *table.Manager
	pageSize int
	log      *zap.SugaredLogger
}

// Config bundles a Compactor's dependencies.
type Config struct {
	Manager  *table.Manager
	PageSize int
	Logger   *zap.SugaredLogger
}

// New constructs a Compactor over an existing table Manager. PageSize
// must match the page size the manager's indexes were opened with.
func New(cfg *Config) (*Compactor, error) {
	if cfg == nil || cfg.Manager == nil || cfg.PageSize <= 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "invalid compactor configuration")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Compactor{manager: cfg.Manager, pageSize: cfg.PageSize, log: log.Named("compaction")}, nil
}

// Result summarizes a completed compaction.
type Result struct {
	TableName       string
	RecordsRetained int64
	CompactedAt     time.Time
}

// indexBuild tracks one index's staged temp file through a compaction.
type indexBuild struct {
	column   string
	path     string
	tempPath string
	tree     *bplustree.BPlusTree
	keyIdx   int
}

// Compact rewrites name's heap, dropping every tombstoned record, and
// rebuilds every declared index against the new offsets.
//
// Staging happens entirely in ".tmp" sibling files; only once the new
// heap and every new index have been fully written and closed does the
// swap begin. The heap is renamed into place first, then every index in
// turn. A failed rename does not abort the remaining ones — every swap
// is still attempted — and if any rename fails the table is reported
// inconsistent via errors.NewCompactionPartialError rather than rolled
// back, per the engine's no-crash-recovery failure model.
func (c *Compactor) Compact(name string) (*Result, error) {
	h, err := c.manager.Open(name)
	if err != nil {
		return nil, err
	}
	dir, err := c.manager.TableDir(name)
	if err != nil {
		return nil, err
	}
	schema, err := h.Descriptor.Schema()
	if err != nil {
		return nil, err
	}

	heapPath := heap.PathFor(dir)
	tempHeapPath := heapPath + ".tmp"

	newHeap, err := heap.Open(&heap.Config{Path: tempHeapPath, Schema: schema, Logger: c.log})
	if err != nil {
		return nil, err
	}

	builds := make([]*indexBuild, 0, len(h.Descriptor.Indexes))
	cleanup := func() {
		newHeap.Close()
		os.Remove(tempHeapPath)
		for _, b := range builds {
			b.tree.Close()
			os.Remove(b.tempPath)
		}
	}

	for _, idxDesc := range h.Descriptor.Indexes {
		keyIdx := schema.IndexOf(idxDesc.Column)
		if keyIdx == -1 {
			cleanup()
			return nil, errors.NewNoSuchColumnError(name, idxDesc.Column)
		}

		path := filepath.Join(dir, table.IndexFileName(idxDesc.Column))
		tempPath := path + ".tmp"
		tree, err := bplustree.Open(&bplustree.Config{Path: tempPath, PageSize: c.pageSize, Logger: c.log})
		if err != nil {
			cleanup()
			return nil, err
		}
		builds = append(builds, &indexBuild{
			column: idxDesc.Column, path: path, tempPath: tempPath, tree: tree, keyIdx: keyIdx,
		})
	}

	var retained int64
	scanErr := h.Heap.Scan(func(_ int64, tombstoned bool, values []codec.Value) (bool, error) {
		if tombstoned {
			return true, nil
		}

		newOffset, err := newHeap.Append(values)
		if err != nil {
			return false, err
		}
		for _, b := range builds {
			key := codec.EncodeKey(values[b.keyIdx])
			if err := b.tree.Insert(key, newOffset); err != nil {
				return false, err
			}
		}

		retained++
		return true, nil
	})
	if scanErr != nil {
		cleanup()
		return nil, scanErr
	}

	var closeErr error
	closeErr = multierr.Append(closeErr, newHeap.Close())
	for _, b := range builds {
		closeErr = multierr.Append(closeErr, b.tree.Close())
	}
	if closeErr != nil {
		os.Remove(tempHeapPath)
		for _, b := range builds {
			os.Remove(b.tempPath)
		}
		return nil, errors.NewStorageError(closeErr, errors.ErrorCodeIO, "failed to finalize compacted files").
			WithPath(dir)
	}

	// Release every file handle the old heap/indexes hold before the
	// rename swap. Discarding the cached handle also forces the next
	// Open to pick up the freshly renamed files.
	if err := c.manager.CloseHandle(name); err != nil {
		os.Remove(tempHeapPath)
		for _, b := range builds {
			os.Remove(b.tempPath)
		}
		return nil, err
	}

	var renameErr error
	if err := os.Rename(tempHeapPath, heapPath); err != nil {
		renameErr = multierr.Append(renameErr, err)
	}
	for _, b := range builds {
		if err := os.Rename(b.tempPath, b.path); err != nil {
			renameErr = multierr.Append(renameErr, err)
		}
	}
	if renameErr != nil {
		c.log.Errorw("compaction left table inconsistent", "table", name, "error", renameErr)
		return nil, errors.NewCompactionPartialError(name, renameErr)
	}

	now := time.Now()
	if err := c.manager.ResetStatsAfterCompaction(name, retained, now); err != nil {
		return nil, err
	}

	c.log.Infow("compacted table", "table", name, "retained", retained)
	return &Result{TableName: name, RecordsRetained: retained, CompactedAt: now}, nil
}
