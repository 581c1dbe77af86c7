package npz

import (
	"io"

	"github.com/meigma/npz/internal/npztype"
)

// EntryInfo describes one stored array as recorded in its entry header.
type EntryInfo = npztype.EntryInfo

// Method identifies how an entry's payload is stored.
type Method = npztype.Method

// Compression methods.
const (
	// MethodStored writes the payload verbatim.
	MethodStored = npztype.MethodStored

	// MethodDeflate compresses the payload with raw DEFLATE.
	MethodDeflate = npztype.MethodDeflate

	// MethodZstd compresses the payload with Zstandard.
	MethodZstd = npztype.MethodZstd
)

// Suffix is appended to every array name to form the entry name.
const Suffix = ".npy"

// ByteSource provides random access to an archive.
//
// *os.File satisfies it through [Open]; *bytes.Reader and
// *io.SectionReader satisfy it directly.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}
