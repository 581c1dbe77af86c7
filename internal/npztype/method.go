// Package npztype defines shared types used across the npz package and its
// internal packages. This avoids circular imports between npz, codec and
// internal/zipfmt.
package npztype

// Method identifies how an entry's payload is stored. Values are the ZIP
// compression method codes written to the entry header.
type Method uint16

const (
	MethodStored  Method = 0
	MethodDeflate Method = 8
	MethodZstd    Method = 93
)

// String returns the human-readable name of the method.
func (m Method) String() string {
	switch m {
	case MethodStored:
		return "stored"
	case MethodDeflate:
		return "deflate"
	case MethodZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Known reports whether the method can be read and written.
func (m Method) Known() bool {
	switch m {
	case MethodStored, MethodDeflate, MethodZstd:
		return true
	default:
		return false
	}
}
