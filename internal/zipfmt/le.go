package zipfmt

import "encoding/binary"

var le = binary.LittleEndian

// Uint16At decodes the little-endian 16-bit field at off.
func Uint16At(b []byte, off int) uint16 {
	return le.Uint16(b[off:])
}

// Uint32At decodes the little-endian 32-bit field at off.
func Uint32At(b []byte, off int) uint32 {
	return le.Uint32(b[off:])
}

// PutUint16At encodes v as a little-endian 16-bit field at off.
func PutUint16At(b []byte, off int, v uint16) {
	le.PutUint16(b[off:], v)
}

// PutUint32At encodes v as a little-endian 32-bit field at off.
func PutUint32At(b []byte, off int, v uint32) {
	le.PutUint32(b[off:], v)
}
