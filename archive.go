package npz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/npz/internal/sizing"
)

// Archive provides random access to the entries of an archive.
//
// Opening an archive scans every entry header once without decompressing
// anything. Payloads are read on demand through io.ReaderAt, so an Archive
// is safe for concurrent use.
type Archive struct {
	src       ByteSource
	closer    io.Closer
	entries   []EntryInfo
	byName    map[string]int
	cfg       *readConfig
	readGroup singleflight.Group // zero value is valid
}

// fileSource adapts an *os.File to ByteSource.
type fileSource struct {
	*os.File
	size int64
}

func (s *fileSource) Size() int64 { return s.size }

// Open opens the archive at path and indexes its entries.
// The caller must Close the returned Archive.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	a, err := New(&fileSource{File: f, size: info.Size()}, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// New indexes the archive held by src.
func New(src ByteSource, opts ...Option) (*Archive, error) {
	cfg := newReadConfig(opts)
	a := &Archive{
		src:    src,
		byName: make(map[string]int),
		cfg:    cfg,
	}

	size := src.Size()
	s := newScanner(io.NewSectionReader(src, 0, size), cfg)
	for {
		e, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if end, ok := sizing.AddInt64(e.DataOffset, int64(e.CompressedSize)); !ok || end > size {
			return nil, fmt.Errorf("%w: entry %q payload ends at %d past archive size %d",
				ErrFormat, e.Name, end, size)
		}
		if _, dup := a.byName[e.Name]; !dup {
			a.byName[e.Name] = len(a.entries)
		}
		a.entries = append(a.entries, e)
		if err := s.skipPayload(&e); err != nil {
			return nil, err
		}
	}
	cfg.log().Debug("archive indexed", "entries", len(a.entries), "size", size)
	return a, nil
}

// Len returns the number of entries, counting duplicated names.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries iterates over every entry in file order.
func (a *Archive) Entries() iter.Seq[EntryInfo] {
	return func(yield func(EntryInfo) bool) {
		for _, e := range a.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Lookup returns the metadata of the first entry named name.
func (a *Archive) Lookup(name string) (EntryInfo, bool) {
	i, ok := a.byName[name]
	if !ok {
		return EntryInfo{}, false
	}
	return a.entries[i], true
}

// ReadEntry decompresses and verifies the payload of the first entry named
// name. Concurrent reads of the same name share one decode; each caller
// receives its own copy.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	i, ok := a.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	v, err, shared := a.readGroup.Do(name, func() (any, error) {
		return a.read(i)
	})
	if err != nil {
		return nil, err
	}
	data, _ := v.([]byte)
	if shared {
		data = bytes.Clone(data)
	}
	return data, nil
}

// ReadAll decompresses every distinct entry concurrently and returns the
// payloads keyed by name. The first error cancels outstanding reads.
func (a *Archive) ReadAll(ctx context.Context) (map[string][]byte, error) {
	results := make([][]byte, len(a.entries))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.cfg.readConcurrency)
	for i := range a.entries {
		if a.byName[a.entries[i].Name] != i {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := a.read(i)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	arrays := make(map[string][]byte, len(a.byName))
	for name, i := range a.byName {
		arrays[name] = results[i]
	}
	return arrays, nil
}

// Close releases the underlying file when the Archive was created by Open.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// read decodes entry i through its own section reader.
func (a *Archive) read(i int) ([]byte, error) {
	e := &a.entries[i]
	r := io.NewSectionReader(a.src, e.DataOffset, int64(e.CompressedSize))
	data, err := decodePayload(r, e, a.cfg)
	if err != nil {
		return nil, err
	}
	a.cfg.reportProgress(StageReading, e.Name, i+1, uint64(e.UncompressedSize))
	return data, nil
}
