package table

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/iamNilotpal/tuntundb/internal/bplustree"
	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/internal/heap"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
	"github.com/iamNilotpal/tuntundb/pkg/filesys"
	"go.uber.org/zap"
)

// Handle bundles everything open for one table: its descriptor, its heap
// file, and every index file keyed by the column it indexes.
type Handle struct {
	Descriptor *Descriptor
	Heap       *heap.Heap
	Indexes    map[string]*bplustree.BPlusTree
	dir        string
}

// IndexFileName is the on-disk filename used for an index over column.
func IndexFileName(column string) string {
	return strings.ToLower(column) + ".idx"
}

func indexPath(tableDir, column string) string {
	return filepath.Join(tableDir, IndexFileName(column))
}

// Close releases every file handle a table holds open.
func (h *Handle) Close() error {
	var err error
	if e := h.Heap.Close(); e != nil {
		err = e
	}
	for _, idx := range h.Indexes {
		if e := idx.Close(); e != nil {
			err = e
		}
	}
	return err
}

// Manager owns every table's lifecycle: creation, lookup, and teardown.
// It is the one place in the engine that knows the mapping from table
// name to on-disk directory.
type Manager struct {
	dataDir  string
	pageSize int
	log      *zap.SugaredLogger

	mu   sync.Mutex
	open map[string]*Handle
}

// Config bundles a Manager's dependencies.
type Config struct {
	DataDir  string
	PageSize int
	Logger   *zap.SugaredLogger
}

// NewManager constructs a Manager over the given data directory,
// creating it if it does not already exist.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil || cfg.DataDir == "" || cfg.PageSize <= 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "invalid table manager configuration")
	}

	if err := filesys.CreateDir(cfg.DataDir, 0755, true); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create data directory").
			WithPath(cfg.DataDir)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Manager{
		dataDir:  cfg.DataDir,
		pageSize: cfg.PageSize,
		log:      log.Named("table"),
		open:     make(map[string]*Handle),
	}, nil
}

// TableExists reports whether name has an on-disk directory, regardless
// of whether it is currently open.
func (m *Manager) TableExists(name string) bool {
	dir := DirFor(m.dataDir, name)
	exists, _ := filesys.Exists(metaPath(dir))
	return exists
}

// CreateTable creates a brand-new table: its directory, its meta.json
// descriptor, its heap file, and a primary index over primaryKey.
func (m *Manager) CreateTable(name string, columns []ColumnDescriptor, primaryKey string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.TableExists(name) {
		return nil, errors.NewTableExistsError(name)
	}

	dir := DirFor(m.dataDir, name)
	if err := filesys.CreateDir(dir, 0755, false); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create table directory").WithPath(dir)
	}

	desc := &Descriptor{
		Name:       name,
		Columns:    columns,
		PrimaryKey: primaryKey,
		Indexes: []IndexDescriptor{
			{Column: primaryKey, File: IndexFileName(primaryKey), Unique: true},
		},
	}

	if err := saveDescriptor(dir, desc); err != nil {
		return nil, err
	}

	m.log.Infow("created table", "table", name, "primaryKey", primaryKey, "columns", len(columns))
	return m.openHandle(dir, desc)
}

// Open returns the Handle for an existing table, opening it from disk
// the first time it is requested.
func (m *Manager) Open(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openLocked(name)
}

func (m *Manager) openLocked(name string) (*Handle, error) {
	if h, ok := m.open[name]; ok {
		return h, nil
	}

	if !m.TableExists(name) {
		return nil, errors.NewNoSuchTableError(name)
	}

	dir := DirFor(m.dataDir, name)
	desc, err := loadDescriptor(dir)
	if err != nil {
		return nil, err
	}

	return m.openHandle(dir, desc)
}

func (m *Manager) openHandle(dir string, desc *Descriptor) (*Handle, error) {
	schema, err := desc.Schema()
	if err != nil {
		return nil, err
	}

	h, err := heap.Open(&heap.Config{Path: heap.PathFor(dir), Schema: schema, Logger: m.log})
	if err != nil {
		return nil, err
	}

	indexes := make(map[string]*bplustree.BPlusTree, len(desc.Indexes))
	for _, idxDesc := range desc.Indexes {
		tree, err := bplustree.Open(&bplustree.Config{
			Path: indexPath(dir, idxDesc.Column), PageSize: m.pageSize, Logger: m.log,
		})
		if err != nil {
			h.Close()
			for _, opened := range indexes {
				opened.Close()
			}
			return nil, err
		}
		indexes[idxDesc.Column] = tree
	}

	handle := &Handle{Descriptor: desc, Heap: h, Indexes: indexes, dir: dir}
	m.open[desc.Name] = handle
	return handle, nil
}

// TableDir returns the on-disk directory for an existing table, used by
// the compactor to locate heap and index files directly.
func (m *Manager) TableDir(name string) (string, error) {
	if !m.TableExists(name) {
		return "", errors.NewNoSuchTableError(name)
	}
	return DirFor(m.dataDir, name), nil
}

// CloseHandle closes and discards a table's currently open handle, if
// any, without deleting anything on disk. The compactor calls this
// before renaming its staged files over a table's files, so the next
// access reopens them fresh.
func (m *Manager) CloseHandle(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.open[name]
	if !ok {
		return nil
	}
	delete(m.open, name)
	return h.Close()
}

// CreateIndex adds a new secondary index over column, built from every
// currently live row in the table's heap.
func (m *Manager) CreateIndex(name, column string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.openLocked(name)
	if err != nil {
		return err
	}

	schema, err := h.Descriptor.Schema()
	if err != nil {
		return err
	}
	keyColumn := schema.IndexOf(column)
	if keyColumn == -1 {
		return errors.NewNoSuchColumnError(name, column)
	}

	if _, exists := h.Indexes[column]; exists {
		return nil
	}

	tree, err := bplustree.Open(&bplustree.Config{
		Path: indexPath(h.dir, column), PageSize: m.pageSize, Logger: m.log,
	})
	if err != nil {
		return err
	}

	type pair struct {
		key codec.Key
		ptr int64
	}
	var pairs []pair
	err = h.Heap.Scan(func(offset int64, tombstoned bool, values []codec.Value) (bool, error) {
		if tombstoned {
			return true, nil
		}
		pairs = append(pairs, pair{key: codec.EncodeKey(values[keyColumn]), ptr: offset})
		return true, nil
	})
	if err != nil {
		tree.Close()
		return err
	}

	i := 0
	if err := tree.BuildFromData(func() (codec.Key, int64, bool, error) {
		if i >= len(pairs) {
			return codec.Key{}, 0, false, nil
		}
		p := pairs[i]
		i++
		return p.key, p.ptr, true, nil
	}); err != nil {
		tree.Close()
		return err
	}

	h.Indexes[column] = tree
	h.Descriptor.Indexes = append(h.Descriptor.Indexes, IndexDescriptor{Column: column, File: IndexFileName(column)})
	if err := saveDescriptor(h.dir, h.Descriptor); err != nil {
		return err
	}

	m.log.Infow("created index", "table", name, "column", column, "entries", len(pairs))
	return nil
}

// UpdateStats adjusts a table's record counters and persists the
// descriptor, used after every INSERT and DELETE.
func (m *Manager) UpdateStats(name string, totalDelta, deletedDelta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.openLocked(name)
	if err != nil {
		return err
	}
	h.Descriptor.Stats.TotalRecords += totalDelta
	h.Descriptor.Stats.DeletedRecords += deletedDelta
	return saveDescriptor(h.dir, h.Descriptor)
}

// ResetStatsAfterCompaction overwrites a table's stats following a
// successful compaction: total_records becomes the live count retained,
// deleted_records resets to zero, and last_compaction is stamped with
// when the sweep completed. Called by the compactor only after every
// rename has already succeeded.
func (m *Manager) ResetStatsAfterCompaction(name string, totalRecords int64, compactedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.openLocked(name)
	if err != nil {
		return err
	}
	h.Descriptor.Stats.TotalRecords = totalRecords
	h.Descriptor.Stats.DeletedRecords = 0
	h.Descriptor.Stats.LastCompaction = &compactedAt
	return saveDescriptor(h.dir, h.Descriptor)
}

// ShouldCompact reports whether a table's deletion ratio exceeds
// threshold.
func (m *Manager) ShouldCompact(name string, threshold float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.openLocked(name)
	if err != nil {
		return false, err
	}
	return h.Descriptor.Stats.DeletionRatio() > threshold, nil
}

// DropTable closes and permanently deletes a table's directory. The
// resolved path is checked to fall within the manager's data directory
// before removal, so a table name smuggling ".." segments can never walk
// DropTable outside the directory it owns.
func (m *Manager) DropTable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.TableExists(name) {
		return errors.NewNoSuchTableError(name)
	}

	if h, ok := m.open[name]; ok {
		h.Close()
		delete(m.open, name)
	}

	dir := DirFor(m.dataDir, name)
	if err := requireWithin(m.dataDir, dir); err != nil {
		return err
	}

	if err := filesys.DeleteDir(dir); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to delete table directory").WithPath(dir)
	}

	m.log.Infow("dropped table", "table", name)
	return nil
}

// requireWithin rejects a resolved path that escapes root, guarding
// DropTable against a table name containing path-traversal segments.
func requireWithin(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to resolve data directory")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to resolve table directory")
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "table path escapes data directory").
			WithField("table").WithProvided(path)
	}
	return nil
}

// Close closes every currently open table handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for name, h := range m.open {
		if e := h.Close(); e != nil {
			err = e
		}
		delete(m.open, name)
	}
	return err
}
