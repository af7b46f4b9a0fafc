package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing segment files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on segment file management and data persistence.
const (
	// ErrorCodeSegmentCorrupted indicates that a segment file's data has been
	// damaged or is in an inconsistent state.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the header
	// portion of a segment file. Headers contain critical metadata about the
	// segment's structure, so header read failures prevent access to the
	// entire segment and all data it contains.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading the actual data
	// content from segment files after successfully reading the header. This
	// represents a more localized failure compared to header problems, as the
	// segment structure is intact but specific data regions are inaccessible.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Index-specific error codes cover the B+ tree's own failure modes, distinct
// from the generic storage codes above because a malformed page is a
// structural problem with the tree, not with the underlying file.
const (
	// ErrorCodeIndexKeyNotFound indicates a lookup found no matching key.
	// Search and range-search treat this as an empty result, not a hard
	// error; the code exists for callers that need to distinguish the two.
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"

	// ErrorCodeIndexInvalidSegmentID indicates a page pointer referenced a
	// block outside the file's current extent.
	ErrorCodeIndexInvalidSegmentID ErrorCode = "INDEX_INVALID_PAGE_ID"

	// ErrorCodeIndexTimestampExtraction is retained for compatibility with
	// the base error constructors; unused by the B+ tree itself.
	ErrorCodeIndexTimestampExtraction ErrorCode = "INDEX_TIMESTAMP_EXTRACTION"

	// ErrorCodeIndexCorrupted indicates a page or super-header failed to
	// parse according to the fixed on-disk layout.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"

	// ErrorCodeBadPage indicates an operation referenced a page_id that is
	// out of range or whose header could not be decoded. Per the failure
	// model, BadPage aborts the current tree operation without attempting
	// self-repair.
	ErrorCodeBadPage ErrorCode = "BAD_PAGE"
)

// Table-lifecycle and query-layer error codes.
const (
	ErrorCodeNoSuchTable    ErrorCode = "NO_SUCH_TABLE"
	ErrorCodeTableExists    ErrorCode = "TABLE_EXISTS"
	ErrorCodeNoSuchColumn   ErrorCode = "NO_SUCH_COLUMN"
	ErrorCodeDuplicateKey   ErrorCode = "DUPLICATE_KEY"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeRequiresIndex  ErrorCode = "REQUIRES_INDEX"
	ErrorCodeCorruptMeta    ErrorCode = "CORRUPT_METADATA"
	ErrorCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// ErrorCodeCompactionPartial indicates that one or more of the renames
	// that swap a compacted heap/index set into place failed after others
	// already succeeded, per §4.6's partial-failure policy: every rename is
	// still attempted, but the table is left in a mixed old/new state and
	// reported inconsistent rather than rolled back.
	ErrorCodeCompactionPartial ErrorCode = "COMPACTION_PARTIAL_FAILURE"
)
