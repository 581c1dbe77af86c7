//go:build unix

package npz

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// openArchive opens path for read-write, creating it if needed. With lock
// set it holds an exclusive flock and retries until the locked file is still
// the one at path, so a concurrent atomic replace is never appended to
// through a stale descriptor.
func openArchive(path string, lock bool) (*os.File, error) {
	for {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, err
		}
		if !lock {
			return f, nil
		}
		if err := flock(f, unix.LOCK_EX); err != nil {
			f.Close()
			return nil, err
		}
		same, err := samePath(f, path)
		if err != nil {
			f.Close()
			return nil, err
		}
		if same {
			return f, nil
		}
		// Replaced while we waited; closing drops the lock on the old inode.
		f.Close()
	}
}

// closeArchive releases the lock, if held, and closes f.
func closeArchive(f *os.File, lock bool) error {
	if lock {
		if err := flock(f, unix.LOCK_UN); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how) //nolint:gosec // fd fits in int
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

func samePath(f *os.File, path string) (bool, error) {
	held, err := f.Stat()
	if err != nil {
		return false, err
	}
	current, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(held, current), nil
}
