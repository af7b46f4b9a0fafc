package options

const (
	// DefaultDataDir is the base directory under which every table's
	// subdirectory (meta.json, data.bin, *.idx) is created when no other
	// directory is configured.
	DefaultDataDir = "/var/lib/tuntundb"

	// DefaultPageSize is the B+ tree page size in bytes, fixed by the
	// on-disk format; it is exposed as an option mainly so tests can
	// exercise splitting/merging with a much smaller page capacity.
	DefaultPageSize = 4096

	// DefaultCompactionThreshold is the deletion ratio (deleted/total)
	// above which a DELETE triggers an inline compaction.
	DefaultCompactionThreshold = 0.20

	// DefaultVarcharPadFactor and DefaultVarcharExtra control CSV type
	// inference sizing for VARCHAR columns: size = observed_max*factor +
	// extra, capped at DefaultVarcharMaxSize.
	DefaultVarcharPadFactor = 1.2
	DefaultVarcharExtra     = 10
	DefaultVarcharMaxSize   = 255
)

// Holds the default configuration settings for a tuntundb Instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	PageSize:            DefaultPageSize,
	CompactionThreshold: DefaultCompactionThreshold,
	VarcharPadFactor:    DefaultVarcharPadFactor,
	VarcharExtra:        DefaultVarcharExtra,
	VarcharMaxSize:      DefaultVarcharMaxSize,
}

// NewDefaultOptions returns a copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
