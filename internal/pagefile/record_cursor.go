package pagefile

import (
	"io"
	"os"

	"github.com/iamNilotpal/tuntundb/pkg/errors"
	"go.uber.org/zap"
)

// RecordCursor reads and writes fixed-size records of a single heap file,
// addressed by a zero-based record index. The heap package is the only
// caller; it is responsible for interpreting a record's tombstone byte.
type RecordCursor struct {
	file       *os.File
	recordSize int
	log        *zap.SugaredLogger
}

// RecordCursorConfig bundles a RecordCursor's dependencies.
type RecordCursorConfig struct {
	Path       string
	RecordSize int
	Logger     *zap.SugaredLogger
}

// OpenRecordCursor opens (creating if absent) the file at cfg.Path for
// random-access record reads and writes.
func OpenRecordCursor(cfg *RecordCursorConfig) (*RecordCursor, error) {
	if cfg == nil || cfg.Path == "" || cfg.RecordSize <= 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "invalid record cursor configuration")
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open heap file").
			WithPath(cfg.Path).
			WithDetail("flags", []string{"O_CREATE", "O_RDWR"})
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &RecordCursor{file: file, recordSize: cfg.RecordSize, log: log.Named("pagefile.record")}, nil
}

// TotalRecords reports how many fixed-size records the file currently holds.
func (c *RecordCursor) TotalRecords() (int64, error) {
	info, err := c.file.Stat()
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat heap file")
	}
	return info.Size() / int64(c.recordSize), nil
}

// ReadAt reads the record at the given zero-based index.
func (c *RecordCursor) ReadAt(index int64) ([]byte, error) {
	buf := make([]byte, c.recordSize)
	off := index * int64(c.recordSize)

	n, err := c.file.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read heap record").
			WithOffset(int(off))
	}
	if n < c.recordSize {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "short read of heap record").
			WithOffset(int(off)).WithDetail("bytesRead", n)
	}
	return buf, nil
}

// WriteAt overwrites the record at the given zero-based index.
func (c *RecordCursor) WriteAt(index int64, data []byte) error {
	if len(data) != c.recordSize {
		return errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "heap record write size mismatch").
			WithDetail("len", len(data)).WithDetail("recordSize", c.recordSize)
	}

	off := index * int64(c.recordSize)
	if _, err := c.file.WriteAt(data, off); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write heap record").WithOffset(int(off))
	}
	return nil
}

// Append writes data as a brand-new record past the current end of file
// and returns the index assigned to it.
func (c *RecordCursor) Append(data []byte) (int64, error) {
	if len(data) != c.recordSize {
		return 0, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "heap record append size mismatch").
			WithDetail("len", len(data)).WithDetail("recordSize", c.recordSize)
	}

	total, err := c.TotalRecords()
	if err != nil {
		return 0, err
	}
	if err := c.WriteAt(total, data); err != nil {
		return 0, err
	}

	c.log.Debugw("appended heap record", "index", total)
	return total, nil
}

// Scan calls fn for every record in the file in index order, stopping
// early if fn returns false or an error.
func (c *RecordCursor) Scan(fn func(index int64, data []byte) (bool, error)) error {
	total, err := c.TotalRecords()
	if err != nil {
		return err
	}
	for i := int64(0); i < total; i++ {
		data, err := c.ReadAt(i)
		if err != nil {
			return err
		}
		cont, err := fn(i, data)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}

// Sync flushes buffered writes to stable storage.
func (c *RecordCursor) Sync() error {
	if err := c.file.Sync(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to sync heap file")
	}
	return nil
}

// Close releases the underlying file handle.
func (c *RecordCursor) Close() error {
	if err := c.file.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close heap file")
	}
	return nil
}
