// Package heap implements the fixed-record, append-only row store that
// sits under every table: one heap file per table, one fixed-width slot
// per row, a leading tombstone byte marking deletion. It never shrinks a
// file on delete; reclaiming space is the compactor's job.
package heap

import (
	"path/filepath"

	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/internal/pagefile"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
	"go.uber.org/zap"
)

// Heap is the fixed-record store backing a single table.
type Heap struct {
	cursor *pagefile.RecordCursor
	schema codec.Schema
	log    *zap.SugaredLogger
}

// Config bundles a Heap's dependencies, the same shape the teacher's
// component constructors use throughout the engine.
type Config struct {
	Path   string
	Schema codec.Schema
	Logger *zap.SugaredLogger
}

// Open opens (creating if absent) the heap file for a table.
func Open(cfg *Config) (*Heap, error) {
	if cfg == nil || cfg.Path == "" || len(cfg.Schema) == 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "invalid heap configuration")
	}

	cursor, err := pagefile.OpenRecordCursor(&pagefile.RecordCursorConfig{
		Path:       cfg.Path,
		RecordSize: cfg.Schema.RecordSize(),
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Heap{cursor: cursor, schema: cfg.Schema, log: log.Named("heap")}, nil
}

// Append encodes values and writes them as a new live record, returning
// the record's offset (its index into the fixed-width slot array).
func (h *Heap) Append(values []codec.Value) (int64, error) {
	raw, err := codec.EncodeRecord(h.schema, values)
	if err != nil {
		return 0, errors.NewValidationError(err, errors.ErrorCodeInvalidInput, "failed to encode record")
	}

	offset, err := h.cursor.Append(raw)
	if err != nil {
		return 0, err
	}

	h.log.Debugw("appended record", "offset", offset)
	return offset, nil
}

// ReadAt returns a record's decoded values and tombstone state.
func (h *Heap) ReadAt(offset int64) (tombstoned bool, values []codec.Value, err error) {
	raw, err := h.cursor.ReadAt(offset)
	if err != nil {
		return false, nil, err
	}
	return codec.DecodeRecord(h.schema, raw)
}

// Tombstone marks the record at offset as logically deleted in place.
func (h *Heap) Tombstone(offset int64) error {
	raw, err := h.cursor.ReadAt(offset)
	if err != nil {
		return err
	}
	if codec.IsTombstoned(raw) {
		return nil
	}

	codec.MarkTombstoned(raw)
	if err := h.cursor.WriteAt(offset, raw); err != nil {
		return err
	}

	h.log.Debugw("tombstoned record", "offset", offset)
	return nil
}

// Scan visits every record (live and tombstoned) in offset order.
func (h *Heap) Scan(fn func(offset int64, tombstoned bool, values []codec.Value) (bool, error)) error {
	return h.cursor.Scan(func(index int64, raw []byte) (bool, error) {
		tombstoned, values, err := codec.DecodeRecord(h.schema, raw)
		if err != nil {
			return false, err
		}
		return fn(index, tombstoned, values)
	})
}

// TotalRecords reports the heap's current slot count, live and
// tombstoned combined.
func (h *Heap) TotalRecords() (int64, error) {
	return h.cursor.TotalRecords()
}

// Close releases the underlying file handle.
func (h *Heap) Close() error {
	return h.cursor.Close()
}

// DataFileName is the on-disk filename used for a table's heap file.
func DataFileName() string {
	return "data.bin"
}

// PathFor joins a table's directory with the heap filename.
func PathFor(tableDir string) string {
	return filepath.Join(tableDir, DataFileName())
}
