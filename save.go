package npz

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// replaceAtomic copies the first start bytes of f and the new tail into a
// temp file next to path, syncs it and renames it over path.
func replaceAtomic(path string, f *os.File, perm fs.FileMode, start int64, tail [][]byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".npz-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := fillTemp(tmp, f, perm, start, tail); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func fillTemp(tmp, f *os.File, perm fs.FileMode, start int64, tail [][]byte) error {
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	bw := bufio.NewWriterSize(tmp, writeBufferSize)
	if _, err := io.Copy(bw, io.NewSectionReader(f, 0, start)); err != nil {
		return err
	}
	if _, err := writeParts(bw, tail); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return tmp.Sync()
}
