package npz

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/meigma/npz/codec"
	"github.com/meigma/npz/internal/ioutil"
	"github.com/meigma/npz/internal/sizing"
	"github.com/meigma/npz/internal/zipfmt"
)

// writeBufferSize is the write buffer used for the new archive tail.
const writeBufferSize = 64 << 10

// Append adds payload to the archive at path as the entry name+".npy",
// creating the file if it does not exist or is empty.
//
// Existing entries are never moved or rewritten. The new entry is written
// where the old central directory began, followed by the old directory
// bytes copied verbatim, one new directory record and a new end record.
// Duplicate names are allowed; readers return the first occurrence.
//
// Archives that would need ZIP64 (more than 65535 entries, or sizes and
// offsets beyond 32 bits) are rejected with ErrUnsupported.
func Append(path, name string, payload []byte, opts ...AppendOption) (err error) {
	cfg := appendConfig{
		method: MethodStored,
		level:  codec.DefaultLevel,
		lock:   true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.method.Known() {
		return fmt.Errorf("%w: compression method %d", ErrUnsupported, uint16(cfg.method))
	}
	entryName := name + Suffix
	if _, err := sizing.ToUint16(len(entryName), ErrFormat); err != nil {
		return fmt.Errorf("%w: entry name is %d bytes", err, len(entryName))
	}
	uncompSize, err := sizing.ToUint32(int64(len(payload)), ErrUnsupported)
	if err != nil {
		return fmt.Errorf("%w: payload of %d bytes needs zip64", err, len(payload))
	}

	data, err := compressPayload(payload, &cfg)
	if err != nil {
		return err
	}
	compSize, err := sizing.ToUint32(int64(len(data)), ErrUnsupported)
	if err != nil {
		return fmt.Errorf("%w: compressed payload of %d bytes needs zip64", err, len(data))
	}

	cfg.log().Info("appending entry", "path", path, "name", name, "method", cfg.method.String(), "size", len(payload))

	f, err := openArchive(path, cfg.lock)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer func() {
		if cerr := closeArchive(f, cfg.lock); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrIO, path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	var prior priorIndex
	if !cfg.truncate && info.Size() > 0 {
		prior, err = readPriorIndex(f, info.Size())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cfg.log().Debug("prior index", "entries", prior.count, "index_size", len(prior.blob), "index_offset", prior.offset)
	}
	if prior.count >= math.MaxUint16 {
		return fmt.Errorf("%w: archive already holds %d entries", ErrUnsupported, prior.count)
	}

	modTime := cfg.modTime
	if modTime.IsZero() {
		modTime = time.Now()
	}
	dosTime, dosDate := zipfmt.TimeToDOS(modTime)
	h := zipfmt.LocalHeader{
		VersionNeeded:    zipfmt.VersionNeeded,
		Method:           cfg.method,
		ModTime:          dosTime,
		ModDate:          dosDate,
		CRC32:            zipfmt.CRC32(payload),
		CompressedSize:   compSize,
		UncompressedSize: uncompSize,
		Name:             entryName,
	}
	hdr, err := h.Marshal()
	if err != nil {
		return err
	}

	start := prior.offset
	startField, err := sizing.ToUint32(start, ErrUnsupported)
	if err != nil {
		return fmt.Errorf("%w: entry offset %d needs zip64", err, start)
	}
	rec, err := zipfmt.CentralRecordFromLocal(hdr, startField)
	if err != nil {
		return err
	}
	indexOffset, err := sizing.ToUint32(start+int64(len(hdr))+int64(len(data)), ErrUnsupported)
	if err != nil {
		return fmt.Errorf("%w: index offset needs zip64", err)
	}
	indexSize, err := sizing.ToUint32(int64(len(prior.blob))+int64(len(rec)), ErrUnsupported)
	if err != nil {
		return fmt.Errorf("%w: index size needs zip64", err)
	}
	count := uint16(prior.count + 1) //nolint:gosec // checked against MaxUint16 above
	end := zipfmt.EndRecord{
		EntriesThisDisk: count,
		EntriesTotal:    count,
		IndexSize:       indexSize,
		IndexOffset:     indexOffset,
	}

	tail := [][]byte{hdr, data, prior.blob, rec, end.Marshal()}
	if cfg.atomic {
		err = replaceAtomic(path, f, info.Mode().Perm(), start, tail)
	} else {
		err = writeInPlace(f, start, tail)
	}
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}

	if cfg.progress != nil {
		cfg.progress(ProgressEvent{Stage: StageWriting, Name: name, EntriesDone: int(count), Bytes: uint64(compSize)})
	}
	cfg.log().Debug("entry appended", "name", name, "entries", count, "compressed_size", compSize, "index_offset", indexOffset)
	return nil
}

// priorIndex is the central directory of the archive being appended to.
type priorIndex struct {
	count  int
	blob   []byte
	offset int64
}

// readPriorIndex reads the end record in the final 22 bytes of f and the
// central directory it points at.
func readPriorIndex(f io.ReaderAt, size int64) (priorIndex, error) {
	if size < zipfmt.EndRecordSize {
		return priorIndex{}, fmt.Errorf("%w: %d bytes is too short for an end record", ErrFormat, size)
	}
	buf := make([]byte, zipfmt.EndRecordSize)
	if _, err := f.ReadAt(buf, size-zipfmt.EndRecordSize); err != nil {
		return priorIndex{}, fmt.Errorf("%w: read end record: %w", ErrIO, err)
	}
	end, err := zipfmt.ParseEndRecord(buf)
	if err != nil {
		return priorIndex{}, err
	}
	if err := end.Validate(size); err != nil {
		return priorIndex{}, err
	}

	blob := make([]byte, end.IndexSize)
	if _, err := f.ReadAt(blob, int64(end.IndexOffset)); err != nil {
		return priorIndex{}, fmt.Errorf("%w: read central directory: %w", ErrIO, err)
	}
	n, err := zipfmt.WalkCentralDirectory(blob, nil)
	if err != nil {
		return priorIndex{}, err
	}
	if n != int(end.EntriesTotal) {
		return priorIndex{}, fmt.Errorf("%w: central directory holds %d records, end record says %d",
			ErrFormat, n, end.EntriesTotal)
	}
	return priorIndex{count: n, blob: blob, offset: int64(end.IndexOffset)}, nil
}

func compressPayload(payload []byte, cfg *appendConfig) ([]byte, error) {
	var format codec.Format
	switch cfg.method {
	case MethodStored:
		return payload, nil
	case MethodZstd:
		format = codec.FormatZstd
	default:
		format = codec.FormatRaw
	}
	return codec.CompressBytes(payload,
		codec.WithFormat(format),
		codec.WithLevel(cfg.level),
		codec.WithLogger(cfg.logger),
	)
}

// writeInPlace overwrites f from offset start with tail and truncates the
// file to the end of the new end record.
func writeInPlace(f *os.File, start int64, tail [][]byte) error {
	bw := bufio.NewWriterSize(io.NewOffsetWriter(f, start), writeBufferSize)
	n, err := writeParts(bw, tail)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := f.Truncate(start + n); err != nil {
		return err
	}
	return f.Sync()
}

// writeParts writes each part to w and returns the total written.
func writeParts(w io.Writer, parts [][]byte) (int64, error) {
	cw := &ioutil.CountingWriter{W: w}
	for _, p := range parts {
		if _, err := cw.Write(p); err != nil {
			return 0, err
		}
	}
	return int64(cw.N), nil //nolint:gosec // bounded by 32-bit fields
}
