package npz

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// fileBufferSize is the read buffer used by LoadFile.
const fileBufferSize = 64 << 10

// Load reads every entry of the archive in r, starting at its first entry
// header, and returns the payloads keyed by array name.
//
// Every payload is decompressed and verified eagerly. When a name occurs
// more than once the first occurrence wins and later payloads are skipped.
func Load(r io.Reader, opts ...Option) (map[string][]byte, error) {
	cfg := newReadConfig(opts)
	s := newScanner(r, cfg)
	arrays := make(map[string][]byte)
	for {
		e, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if _, dup := arrays[e.Name]; dup {
			cfg.log().Debug("duplicate entry ignored", "name", e.Name, "offset", e.Offset)
			if err := s.skipPayload(&e); err != nil {
				return nil, err
			}
			continue
		}
		data, err := s.payload(&e)
		if err != nil {
			return nil, err
		}
		arrays[e.Name] = data
	}
	cfg.log().Debug("archive loaded", "entries", s.visited, "arrays", len(arrays))
	return arrays, nil
}

// LoadEntry reads the archive in r until it finds the entry for name and
// returns its payload. Entries before it are skipped by their compressed
// size, using Seek when r implements io.Seeker.
//
// LoadEntry returns ErrNotFound after scanning every entry header.
func LoadEntry(r io.Reader, name string, opts ...Option) ([]byte, error) {
	cfg := newReadConfig(opts)
	s := newScanner(r, cfg)
	for {
		e, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q after %d entries", ErrNotFound, name, s.visited)
		}
		if e.Name == name {
			return s.payload(&e)
		}
		if err := s.skipPayload(&e); err != nil {
			return nil, err
		}
	}
}

// LoadFile opens path and calls Load.
func LoadFile(path string, opts ...Option) (map[string][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()
	return Load(bufio.NewReaderSize(f, fileBufferSize), opts...)
}

// LoadFileEntry opens path and calls LoadEntry.
func LoadFileEntry(path, name string, opts ...Option) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()
	return LoadEntry(f, name, opts...)
}
