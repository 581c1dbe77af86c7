//go:build !unix

package npz

import "os"

// openArchive opens path for read-write, creating it if needed. Advisory
// locking is not available on this platform.
func openArchive(path string, _ bool) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
}

// closeArchive closes f.
func closeArchive(f *os.File, _ bool) error {
	return f.Close()
}
