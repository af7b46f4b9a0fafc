// Package table owns a table's on-disk layout: its directory, its
// meta.json descriptor, and the lifecycle operations (create, drop,
// stats bookkeeping) that sit above the heap and its indexes.
package table

import (
	"path/filepath"
	"time"

	goccyjson "github.com/goccy/go-json"

	"github.com/iamNilotpal/tuntundb/internal/codec"
	"github.com/iamNilotpal/tuntundb/pkg/errors"
	"github.com/iamNilotpal/tuntundb/pkg/filesys"
)

// MetaFileName is the descriptor's filename within a table's directory.
const MetaFileName = "meta.json"

// ColumnDescriptor is a schema column as it appears in meta.json: the
// type is kept in its string form (e.g. "VARCHAR[32]") so the sidecar
// stays human-readable, and parsed back into a codec.ColumnType on load.
type ColumnDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// IndexDescriptor records one secondary (or primary) index over a
// column: its file name and whether duplicate keys are rejected.
type IndexDescriptor struct {
	Column string `json:"column"`
	File   string `json:"file"`
	Unique bool   `json:"unique"`
}

// Stats tracks the heap-level bookkeeping the compactor reads to decide
// whether a table needs compacting.
type Stats struct {
	TotalRecords   int64      `json:"totalRecords"`
	DeletedRecords int64      `json:"deletedRecords"`
	LastCompaction *time.Time `json:"lastCompaction,omitempty"`
}

// DeletionRatio is the fraction of records tombstoned, the number the
// compaction threshold is compared against.
func (s Stats) DeletionRatio() float64 {
	if s.TotalRecords == 0 {
		return 0
	}
	return float64(s.DeletedRecords) / float64(s.TotalRecords)
}

// Descriptor is a table's full meta.json sidecar: its schema, its
// primary key column, its indexes, and its compaction-relevant stats.
type Descriptor struct {
	Name       string             `json:"name"`
	Columns    []ColumnDescriptor `json:"columns"`
	PrimaryKey string             `json:"primaryKey"`
	Indexes    []IndexDescriptor  `json:"indexes"`
	Stats      Stats              `json:"stats"`
}

// Schema parses the descriptor's column type strings into a codec.Schema.
func (d *Descriptor) Schema() (codec.Schema, error) {
	schema := make(codec.Schema, len(d.Columns))
	for i, c := range d.Columns {
		ct, err := codec.ParseColumnType(c.Type)
		if err != nil {
			return nil, errors.NewTableError(err, errors.ErrorCodeCorruptMeta, "invalid column type in descriptor").
				WithTable(d.Name).WithColumn(c.Name)
		}
		schema[i] = codec.Column{Name: c.Name, Type: ct}
	}
	return schema, nil
}

// IndexedColumns reports which column names currently have an index,
// keyed by column name.
func (d *Descriptor) IndexedColumns() map[string]IndexDescriptor {
	out := make(map[string]IndexDescriptor, len(d.Indexes))
	for _, idx := range d.Indexes {
		out[idx.Column] = idx
	}
	return out
}

// DirFor returns a table's directory under the engine's data directory.
// Table names are used verbatim as the subdirectory name, with no case
// folding, so names that differ only in case map to different directories.
func DirFor(dataDir, tableName string) string {
	return filepath.Join(dataDir, tableNameToDir(tableName))
}

func tableNameToDir(name string) string {
	return name
}

func metaPath(tableDir string) string {
	return filepath.Join(tableDir, MetaFileName)
}

// loadDescriptor reads and parses a table's meta.json.
func loadDescriptor(tableDir string) (*Descriptor, error) {
	raw, err := filesys.ReadFile(metaPath(tableDir))
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read table descriptor").
			WithPath(metaPath(tableDir))
	}

	var d Descriptor
	if err := goccyjson.Unmarshal(raw, &d); err != nil {
		return nil, errors.NewTableError(err, errors.ErrorCodeCorruptMeta, "failed to parse table descriptor").
			WithTable(d.Name)
	}
	return &d, nil
}

// saveDescriptor writes a table's meta.json, pretty-printed so it stays
// inspectable by hand during development.
func saveDescriptor(tableDir string, d *Descriptor) error {
	raw, err := goccyjson.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.NewTableError(err, errors.ErrorCodeInternal, "failed to encode table descriptor").
			WithTable(d.Name)
	}

	if err := filesys.WriteFile(metaPath(tableDir), 0644, raw); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write table descriptor").
			WithPath(metaPath(tableDir))
	}
	return nil
}
