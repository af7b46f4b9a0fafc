// Package options provides data structures and functions for configuring
// the tuntundb storage engine. It defines the parameters that control the
// engine's on-disk layout and maintenance behavior: the data directory,
// the B+ tree page size, the compaction trigger threshold, and the CSV
// type-inference tunables used by CREATE TABLE ... FROM FILE.
package options

import "strings"

// Options defines the configuration parameters for a tuntundb Instance.
type Options struct {
	// DataDir is the base path under which every table gets its own
	// subdirectory, named exactly as the table name is given.
	//
	// Default: "/var/lib/tuntundb"
	DataDir string `json:"dataDir"`

	// PageSize is the B+ tree page size in bytes. It is part of the
	// on-disk format: an index file written with one page size cannot be
	// opened with another. Tests shrink it to exercise splits cheaply;
	// production code should leave it at the default.
	//
	// Default: 4096
	PageSize int `json:"pageSize"`

	// CompactionThreshold is the deletion ratio (deleted_records /
	// total_records) above which a DELETE triggers an inline compaction.
	//
	// Default: 0.20
	CompactionThreshold float64 `json:"compactionThreshold"`

	// VarcharPadFactor, VarcharExtra and VarcharMaxSize control how
	// CREATE TABLE ... FROM FILE sizes inferred VARCHAR columns:
	// size = observed_max_len*VarcharPadFactor + VarcharExtra, capped at
	// VarcharMaxSize.
	VarcharPadFactor float64 `json:"varcharPadFactor"`
	VarcharExtra     int     `json:"varcharExtra"`
	VarcharMaxSize   int     `json:"varcharMaxSize"`
}

// OptionFunc is a function type that modifies an Options value.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration
// values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the primary data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithPageSize overrides the B+ tree page size. Must be large enough to
// hold the 15-byte page header plus at least one key/pointer pair and the
// trailing pointer, or it is ignored.
func WithPageSize(size int) OptionFunc {
	return func(o *Options) {
		if size >= 64 {
			o.PageSize = size
		}
	}
}

// WithCompactionThreshold overrides the deletion-ratio compaction trigger.
func WithCompactionThreshold(threshold float64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 && threshold <= 1 {
			o.CompactionThreshold = threshold
		}
	}
}

// WithVarcharSizing overrides the CSV VARCHAR inference parameters.
func WithVarcharSizing(padFactor float64, extra, maxSize int) OptionFunc {
	return func(o *Options) {
		if padFactor > 0 {
			o.VarcharPadFactor = padFactor
		}
		if extra >= 0 {
			o.VarcharExtra = extra
		}
		if maxSize > 0 {
			o.VarcharMaxSize = maxSize
		}
	}
}
