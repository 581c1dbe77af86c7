package npztype

import "errors"

// Sentinel errors for archive and codec operations.
var (
	// ErrIO is returned when the backing medium fails to open, read or write.
	ErrIO = errors.New("npz: i/o failure")

	// ErrFormat is returned for bad signatures, truncated records and
	// inconsistent length fields.
	ErrFormat = errors.New("npz: malformed archive")

	// ErrIntegrity is returned when a payload fails its size or CRC-32 check.
	ErrIntegrity = errors.New("npz: integrity check failed")

	// ErrNotFound is returned when a requested entry is absent.
	ErrNotFound = errors.New("npz: entry not found")

	// ErrUnsupported is returned when an archive uses a feature this package
	// does not implement, such as multi-disk layouts, encryption or ZIP64.
	ErrUnsupported = errors.New("npz: unsupported feature")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("npz: size overflow")
)
