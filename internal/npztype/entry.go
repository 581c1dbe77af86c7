package npztype

import "time"

// EntryInfo describes one stored array as recorded in its entry header.
type EntryInfo struct {
	// Name is the array name with the ".npy" suffix removed.
	Name string

	// Offset is the file offset of the entry header.
	Offset int64

	// DataOffset is the file offset of the first payload byte.
	DataOffset int64

	// Method is the compression method of the payload.
	Method Method

	// Flags is the general purpose bit flag field.
	Flags uint16

	// CompressedSize is the number of payload bytes stored in the archive.
	// Equal to UncompressedSize for stored entries.
	CompressedSize uint32

	// UncompressedSize is the payload length before compression.
	UncompressedSize uint32

	// CRC32 is the IEEE checksum of the uncompressed payload.
	CRC32 uint32

	// ModTime and ModDate are the packed MS-DOS time and date fields.
	ModTime uint16
	ModDate uint16

	modified time.Time
}

// SetModified records the decoded modification time.
func (e *EntryInfo) SetModified(t time.Time) {
	e.modified = t
}

// Modified returns the decoded modification time at two-second resolution.
func (e EntryInfo) Modified() time.Time {
	return e.modified
}
