package npz

import "github.com/meigma/npz/internal/npztype"

// Errors re-exported from npztype.
var (
	// ErrIO is returned when the archive file cannot be opened, read or
	// written.
	ErrIO = npztype.ErrIO

	// ErrFormat is returned for bad signatures, truncated records and
	// inconsistent length fields.
	ErrFormat = npztype.ErrFormat

	// ErrIntegrity is returned when a payload fails its length or CRC-32
	// check, or its compressed stream is corrupt.
	ErrIntegrity = npztype.ErrIntegrity

	// ErrNotFound is returned when a requested entry is absent.
	ErrNotFound = npztype.ErrNotFound

	// ErrUnsupported is returned for multi-disk archives, comments,
	// encryption, data descriptors, unknown methods and ZIP64.
	ErrUnsupported = npztype.ErrUnsupported

	// ErrSizeOverflow is returned when an entry exceeds the configured
	// size limit.
	ErrSizeOverflow = npztype.ErrSizeOverflow
)
