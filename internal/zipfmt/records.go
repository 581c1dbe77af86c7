package zipfmt

import (
	"fmt"
	"math"

	"github.com/meigma/npz/internal/npztype"
)

// Record signatures.
const (
	LocalHeaderSignature   uint32 = 0x04034b50
	CentralRecordSignature uint32 = 0x02014b50
	EndRecordSignature     uint32 = 0x06054b50
)

// Fixed record sizes, excluding variable-length name, extra and comment.
const (
	LocalHeaderSize   = 30
	CentralRecordSize = 46
	EndRecordSize     = 22
)

// Constant field values written by this package.
const (
	VersionNeeded = 20
	VersionMadeBy = 0x0314
	// ExternalAttrs marks a regular file with mode 0600 in the high word.
	ExternalAttrs uint32 = 0x81800000
)

// General-purpose flag bits the reader refuses.
const (
	FlagEncrypted      uint16 = 0x0001
	FlagDataDescriptor uint16 = 0x0008
)

// Sentinel32 marks a size or offset that was moved to a ZIP64 extra field.
const Sentinel32 uint32 = math.MaxUint32

// sharedFields is the span of the entry header copied verbatim into the
// index record: version-needed through extra length.
const (
	sharedStart = 4
	sharedEnd   = LocalHeaderSize
)

// LocalHeader is the fixed portion of an entry header plus its name.
type LocalHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           npztype.Method
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
	Name             string
}

// Marshal encodes the header followed by its name. Extra data is never
// written; NameLen is derived from Name.
func (h *LocalHeader) Marshal() ([]byte, error) {
	if len(h.Name) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: entry name is %d bytes", npztype.ErrFormat, len(h.Name))
	}
	buf := make([]byte, LocalHeaderSize+len(h.Name))
	PutUint32At(buf, 0, LocalHeaderSignature)
	PutUint16At(buf, 4, h.VersionNeeded)
	PutUint16At(buf, 6, h.Flags)
	PutUint16At(buf, 8, uint16(h.Method))
	PutUint16At(buf, 10, h.ModTime)
	PutUint16At(buf, 12, h.ModDate)
	PutUint32At(buf, 14, h.CRC32)
	PutUint32At(buf, 18, h.CompressedSize)
	PutUint32At(buf, 22, h.UncompressedSize)
	PutUint16At(buf, 26, uint16(len(h.Name))) //nolint:gosec // checked above
	PutUint16At(buf, 28, 0)
	copy(buf[LocalHeaderSize:], h.Name)
	return buf, nil
}

// ParseLocalHeader decodes the fixed 30-byte portion of an entry header.
// Name is left empty; the caller reads NameLen bytes that follow.
func ParseLocalHeader(fixed []byte) (LocalHeader, error) {
	if len(fixed) < LocalHeaderSize {
		return LocalHeader{}, fmt.Errorf("%w: entry header truncated at %d bytes", npztype.ErrFormat, len(fixed))
	}
	if sig := Uint32At(fixed, 0); sig != LocalHeaderSignature {
		return LocalHeader{}, fmt.Errorf("%w: entry header signature %#08x", npztype.ErrFormat, sig)
	}
	return LocalHeader{
		VersionNeeded:    Uint16At(fixed, 4),
		Flags:            Uint16At(fixed, 6),
		Method:           npztype.Method(Uint16At(fixed, 8)),
		ModTime:          Uint16At(fixed, 10),
		ModDate:          Uint16At(fixed, 12),
		CRC32:            Uint32At(fixed, 14),
		CompressedSize:   Uint32At(fixed, 18),
		UncompressedSize: Uint32At(fixed, 22),
		NameLen:          Uint16At(fixed, 26),
		ExtraLen:         Uint16At(fixed, 28),
	}, nil
}

// CheckSupported reports ErrUnsupported for encryption, trailing data
// descriptors, unknown methods and ZIP64 size sentinels.
func (h *LocalHeader) CheckSupported() error {
	switch {
	case h.Flags&FlagEncrypted != 0:
		return fmt.Errorf("%w: encrypted entry", npztype.ErrUnsupported)
	case h.Flags&FlagDataDescriptor != 0:
		return fmt.Errorf("%w: entry sizes deferred to data descriptor", npztype.ErrUnsupported)
	case !h.Method.Known():
		return fmt.Errorf("%w: compression method %d", npztype.ErrUnsupported, uint16(h.Method))
	case h.CompressedSize == Sentinel32 || h.UncompressedSize == Sentinel32:
		return fmt.Errorf("%w: zip64 entry sizes", npztype.ErrUnsupported)
	}
	return nil
}

// CentralRecordFromLocal builds an index record for an entry whose encoded
// header (fixed part plus name) is hdr and which starts at offset.
func CentralRecordFromLocal(hdr []byte, offset uint32) ([]byte, error) {
	if len(hdr) < LocalHeaderSize {
		return nil, fmt.Errorf("%w: entry header truncated at %d bytes", npztype.ErrFormat, len(hdr))
	}
	nameLen := int(Uint16At(hdr, 26))
	if len(hdr) < LocalHeaderSize+nameLen {
		return nil, fmt.Errorf("%w: entry name truncated", npztype.ErrFormat)
	}
	rec := make([]byte, CentralRecordSize+nameLen)
	PutUint32At(rec, 0, CentralRecordSignature)
	PutUint16At(rec, 4, VersionMadeBy)
	copy(rec[6:32], hdr[sharedStart:sharedEnd])
	PutUint16At(rec, 32, 0) // comment length
	PutUint16At(rec, 34, 0) // disk number
	PutUint16At(rec, 36, 0) // internal attributes
	PutUint32At(rec, 38, ExternalAttrs)
	PutUint32At(rec, 42, offset)
	copy(rec[CentralRecordSize:], hdr[LocalHeaderSize:LocalHeaderSize+nameLen])
	return rec, nil
}

// CentralRecord is a decoded index record.
type CentralRecord struct {
	VersionMadeBy    uint16
	Flags            uint16
	Method           npztype.Method
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	DiskNumber       uint16
	ExternalAttrs    uint32
	LocalOffset      uint32
	Name             string
}

// ParseCentralRecord decodes one index record from the front of b and
// returns its total encoded length.
func ParseCentralRecord(b []byte) (CentralRecord, int, error) {
	if len(b) < CentralRecordSize {
		return CentralRecord{}, 0, fmt.Errorf("%w: index record truncated", npztype.ErrFormat)
	}
	if sig := Uint32At(b, 0); sig != CentralRecordSignature {
		return CentralRecord{}, 0, fmt.Errorf("%w: index record signature %#08x", npztype.ErrFormat, sig)
	}
	nameLen := int(Uint16At(b, 28))
	extraLen := int(Uint16At(b, 30))
	commentLen := int(Uint16At(b, 32))
	total := CentralRecordSize + nameLen + extraLen + commentLen
	if len(b) < total {
		return CentralRecord{}, 0, fmt.Errorf("%w: index record variable fields truncated", npztype.ErrFormat)
	}
	return CentralRecord{
		VersionMadeBy:    Uint16At(b, 4),
		Flags:            Uint16At(b, 8),
		Method:           npztype.Method(Uint16At(b, 10)),
		ModTime:          Uint16At(b, 12),
		ModDate:          Uint16At(b, 14),
		CRC32:            Uint32At(b, 16),
		CompressedSize:   Uint32At(b, 20),
		UncompressedSize: Uint32At(b, 24),
		DiskNumber:       Uint16At(b, 34),
		ExternalAttrs:    Uint32At(b, 38),
		LocalOffset:      Uint32At(b, 42),
		Name:             string(b[CentralRecordSize : CentralRecordSize+nameLen]),
	}, total, nil
}

// WalkCentralDirectory decodes every record in an index blob, calling fn for
// each. It returns the number of records visited. Trailing bytes that do not
// form a complete record are ErrFormat.
func WalkCentralDirectory(blob []byte, fn func(CentralRecord) error) (int, error) {
	n := 0
	for len(blob) > 0 {
		rec, size, err := ParseCentralRecord(blob)
		if err != nil {
			return n, fmt.Errorf("index record %d: %w", n, err)
		}
		if fn != nil {
			if err := fn(rec); err != nil {
				return n, err
			}
		}
		blob = blob[size:]
		n++
	}
	return n, nil
}

// EndRecord is the end-of-central-directory marker.
type EndRecord struct {
	DiskNumber      uint16
	IndexDisk       uint16
	EntriesThisDisk uint16
	EntriesTotal    uint16
	IndexSize       uint32
	IndexOffset     uint32
	CommentLen      uint16
}

// Marshal encodes the marker. A comment is never written.
func (e *EndRecord) Marshal() []byte {
	buf := make([]byte, EndRecordSize)
	PutUint32At(buf, 0, EndRecordSignature)
	PutUint16At(buf, 4, e.DiskNumber)
	PutUint16At(buf, 6, e.IndexDisk)
	PutUint16At(buf, 8, e.EntriesThisDisk)
	PutUint16At(buf, 10, e.EntriesTotal)
	PutUint32At(buf, 12, e.IndexSize)
	PutUint32At(buf, 16, e.IndexOffset)
	PutUint16At(buf, 20, 0)
	return buf
}

// ParseEndRecord decodes a 22-byte end marker.
func ParseEndRecord(b []byte) (EndRecord, error) {
	if len(b) != EndRecordSize {
		return EndRecord{}, fmt.Errorf("%w: end marker is %d bytes", npztype.ErrFormat, len(b))
	}
	if sig := Uint32At(b, 0); sig != EndRecordSignature {
		return EndRecord{}, fmt.Errorf("%w: end marker signature %#08x", npztype.ErrFormat, sig)
	}
	return EndRecord{
		DiskNumber:      Uint16At(b, 4),
		IndexDisk:       Uint16At(b, 6),
		EntriesThisDisk: Uint16At(b, 8),
		EntriesTotal:    Uint16At(b, 10),
		IndexSize:       Uint32At(b, 12),
		IndexOffset:     Uint32At(b, 16),
		CommentLen:      Uint16At(b, 20),
	}, nil
}

// Validate checks the marker against an archive of fileSize bytes whose
// marker sits in the final 22 bytes with no trailing comment.
func (e *EndRecord) Validate(fileSize int64) error {
	switch {
	case e.DiskNumber != 0 || e.IndexDisk != 0:
		return fmt.Errorf("%w: multi-disk archive", npztype.ErrUnsupported)
	case e.CommentLen != 0:
		return fmt.Errorf("%w: archive comment", npztype.ErrUnsupported)
	case e.EntriesThisDisk != e.EntriesTotal:
		return fmt.Errorf("%w: entry counts disagree (%d vs %d)", npztype.ErrFormat, e.EntriesThisDisk, e.EntriesTotal)
	case e.IndexSize == Sentinel32 || e.IndexOffset == Sentinel32:
		return fmt.Errorf("%w: zip64 index", npztype.ErrUnsupported)
	}
	if int64(e.IndexOffset)+int64(e.IndexSize) != fileSize-EndRecordSize {
		return fmt.Errorf("%w: index spans [%d,%d) but end marker starts at %d",
			npztype.ErrFormat, e.IndexOffset, int64(e.IndexOffset)+int64(e.IndexSize), fileSize-EndRecordSize)
	}
	return nil
}
