// Package endian normalizes the byte order of fixed-width array elements.
package endian

import (
	"fmt"

	"golang.org/x/sys/cpu"
)

// NativeBigEndian reports whether the executing platform is big-endian.
func NativeBigEndian() bool {
	return cpu.IsBigEndian
}

// NeedsSwap reports whether elements of the given width stored in the
// requested byte order must be swapped to match the platform order.
func NeedsSwap(width int, bigEndian bool) bool {
	return width > 1 && bigEndian != NativeBigEndian()
}

// ValidWidth reports whether width is a supported element size.
func ValidWidth(width int) bool {
	switch width {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// Swap reverses the bytes of every width-sized element of buf in place.
// len(buf) must be a multiple of width.
func Swap(buf []byte, width int) error {
	if !ValidWidth(width) {
		return fmt.Errorf("unsupported element width %d", width)
	}
	if len(buf)%width != 0 {
		return fmt.Errorf("buffer length %d is not a multiple of element width %d", len(buf), width)
	}
	switch width {
	case 2:
		for i := 0; i < len(buf); i += 2 {
			buf[i], buf[i+1] = buf[i+1], buf[i]
		}
	case 4:
		for i := 0; i < len(buf); i += 4 {
			buf[i], buf[i+1], buf[i+2], buf[i+3] = buf[i+3], buf[i+2], buf[i+1], buf[i]
		}
	case 8:
		for i := 0; i < len(buf); i += 8 {
			e := buf[i : i+8 : i+8]
			e[0], e[1], e[2], e[3], e[4], e[5], e[6], e[7] = e[7], e[6], e[5], e[4], e[3], e[2], e[1], e[0]
		}
	}
	return nil
}
