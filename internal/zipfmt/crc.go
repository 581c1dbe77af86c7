package zipfmt

import "hash/crc32"

// CRC32 returns the IEEE CRC-32 of p, seeded at zero.
func CRC32(p []byte) uint32 {
	return crc32.ChecksumIEEE(p)
}
