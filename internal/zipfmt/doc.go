// Package zipfmt encodes and decodes the fixed-layout records of the archive
// container: entry headers, index (central directory) records and the end
// marker, together with the CRC-32 and MS-DOS date/time helpers they need.
//
// All multi-byte fields are little-endian and are read and written through
// explicit offset-based helpers, never through host memory layout.
//
// Layout of the three records:
//
//	entry header   sig(4) need(2) flags(2) method(2) time(2) date(2)
//	               crc(4) csize(4) usize(4) nlen(2) xlen(2) name extra
//	index record   sig(4) made(2) <26 bytes copied from the entry header>
//	               clen(2) disk(2) iattr(2) xattr(4) offset(4) name
//	end marker     sig(4) disk(2) idisk(2) n(2) total(2) isize(4) ioff(4) clen(2)
package zipfmt
