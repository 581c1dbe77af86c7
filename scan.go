package npz

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/meigma/npz/codec"
	"github.com/meigma/npz/internal/sizing"
	"github.com/meigma/npz/internal/zipfmt"
)

// scanner walks entry headers sequentially from the start of an archive.
type scanner struct {
	r       io.Reader
	cfg     *readConfig
	pos     int64
	visited int
	hdr     [zipfmt.LocalHeaderSize]byte
}

func newScanner(r io.Reader, cfg *readConfig) *scanner {
	return &scanner{r: r, cfg: cfg}
}

// next reads the next entry header and leaves the reader at its payload.
// It returns false when the central directory or end record is reached.
func (s *scanner) next() (EntryInfo, bool, error) {
	if _, err := io.ReadFull(s.r, s.hdr[:4]); err != nil {
		return EntryInfo{}, false, readError("entry signature", s.pos, err)
	}
	switch sig := zipfmt.Uint32At(s.hdr[:], 0); sig {
	case zipfmt.LocalHeaderSignature:
	case zipfmt.CentralRecordSignature, zipfmt.EndRecordSignature:
		return EntryInfo{}, false, nil
	default:
		return EntryInfo{}, false, fmt.Errorf("%w: unexpected signature %#08x at offset %d", ErrFormat, sig, s.pos)
	}

	if _, err := io.ReadFull(s.r, s.hdr[4:]); err != nil {
		return EntryInfo{}, false, readError("entry header", s.pos, err)
	}
	h, err := zipfmt.ParseLocalHeader(s.hdr[:])
	if err != nil {
		return EntryInfo{}, false, err
	}
	name := make([]byte, h.NameLen)
	if _, err := io.ReadFull(s.r, name); err != nil {
		return EntryInfo{}, false, readError("entry name", s.pos, err)
	}
	if err := s.discard(int64(h.ExtraLen)); err != nil {
		return EntryInfo{}, false, err
	}

	e := entryFromHeader(&h, string(name), s.pos)
	s.pos = e.DataOffset
	s.visited++
	s.cfg.reportProgress(StageScanning, e.Name, s.visited, uint64(e.CompressedSize))

	if err := checkEntry(&h, &e, s.cfg); err != nil {
		return EntryInfo{}, false, err
	}
	return e, true, nil
}

// payload materializes the current entry and advances past it.
func (s *scanner) payload(e *EntryInfo) ([]byte, error) {
	lr := &io.LimitedReader{R: s.r, N: int64(e.CompressedSize)}
	data, err := decodePayload(lr, e, s.cfg)
	if err != nil {
		return nil, err
	}
	// Leftover bounded input keeps the scan aligned on the next header.
	if lr.N > 0 {
		s.cfg.log().Debug("draining payload tail", "name", e.Name, "bytes", lr.N)
		if _, err := io.Copy(io.Discard, lr); err != nil {
			return nil, readError("entry payload", s.pos, err)
		}
		if lr.N > 0 {
			return nil, fmt.Errorf("%w: entry %q payload truncated", ErrFormat, e.Name)
		}
	}
	s.pos += int64(e.CompressedSize)
	s.cfg.reportProgress(StageReading, e.Name, s.visited, uint64(e.UncompressedSize))
	return data, nil
}

// skipPayload advances past the current entry without reading it.
func (s *scanner) skipPayload(e *EntryInfo) error {
	s.cfg.log().Debug("skipping entry", "name", e.Name, "bytes", e.CompressedSize)
	return s.discard(int64(e.CompressedSize))
}

func (s *scanner) discard(n int64) error {
	if n == 0 {
		return nil
	}
	if seeker, ok := s.r.(io.Seeker); ok {
		if _, err := seeker.Seek(n, io.SeekCurrent); err != nil {
			return fmt.Errorf("%w: seek at offset %d: %w", ErrIO, s.pos, err)
		}
	} else if _, err := io.CopyN(io.Discard, s.r, n); err != nil {
		return readError("skipped bytes", s.pos, err)
	}
	s.pos += n
	return nil
}

// entryFromHeader builds the entry description for a header at offset.
func entryFromHeader(h *zipfmt.LocalHeader, rawName string, offset int64) EntryInfo {
	e := EntryInfo{
		Name:             strings.TrimSuffix(rawName, Suffix),
		Offset:           offset,
		DataOffset:       offset + zipfmt.LocalHeaderSize + int64(h.NameLen) + int64(h.ExtraLen),
		Method:           h.Method,
		Flags:            h.Flags,
		CompressedSize:   h.CompressedSize,
		UncompressedSize: h.UncompressedSize,
		CRC32:            h.CRC32,
		ModTime:          h.ModTime,
		ModDate:          h.ModDate,
	}
	e.SetModified(zipfmt.DOSToTime(h.ModTime, h.ModDate, time.Local))
	return e
}

// checkEntry rejects entries this package cannot read.
func checkEntry(h *zipfmt.LocalHeader, e *EntryInfo, cfg *readConfig) error {
	if err := h.CheckSupported(); err != nil {
		return fmt.Errorf("entry %q: %w", e.Name, err)
	}
	if e.Method == MethodStored && e.CompressedSize != e.UncompressedSize {
		return fmt.Errorf("%w: stored entry %q has compressed size %d but uncompressed size %d",
			ErrFormat, e.Name, e.CompressedSize, e.UncompressedSize)
	}
	if !sizing.WithinLimit(uint64(e.CompressedSize), cfg.maxEntrySize) ||
		!sizing.WithinLimit(uint64(e.UncompressedSize), cfg.maxEntrySize) {
		return fmt.Errorf("%w: entry %q is %d bytes, limit %d",
			ErrSizeOverflow, e.Name, max(e.CompressedSize, e.UncompressedSize), cfg.maxEntrySize)
	}
	return nil
}

// decodePayload reads exactly one payload from r, which must be bounded to
// the entry's compressed size, and verifies its length and CRC-32.
func decodePayload(r io.Reader, e *EntryInfo, cfg *readConfig) ([]byte, error) {
	var data []byte
	switch e.Method {
	case MethodStored:
		n, err := sizing.ToInt(uint64(e.UncompressedSize), ErrSizeOverflow)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q", err, e.Name)
		}
		data = make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, readError(fmt.Sprintf("entry %q payload", e.Name), e.DataOffset, err)
		}
	case MethodDeflate, MethodZstd:
		format := codec.FormatRaw
		if e.Method == MethodZstd {
			format = codec.FormatZstd
		}
		var err error
		data, err = codec.Decompress(r,
			codec.WithFormat(format),
			codec.WithMaxOutput(uint64(e.UncompressedSize)+1),
			codec.WithPool(cfg.pool),
			codec.WithLogger(cfg.logger),
		)
		if err != nil {
			if errors.Is(err, ErrIO) {
				return nil, fmt.Errorf("entry %q: %w", e.Name, err)
			}
			return nil, fmt.Errorf("%w: entry %q: %w", ErrIntegrity, e.Name, err)
		}
		if len(data) != int(e.UncompressedSize) {
			return nil, fmt.Errorf("%w: entry %q decoded to %d bytes, header says %d",
				ErrIntegrity, e.Name, len(data), e.UncompressedSize)
		}
	default:
		return nil, fmt.Errorf("%w: entry %q method %d", ErrUnsupported, e.Name, uint16(e.Method))
	}
	if sum := zipfmt.CRC32(data); sum != e.CRC32 {
		return nil, fmt.Errorf("%w: entry %q crc32 %#08x, header says %#08x", ErrIntegrity, e.Name, sum, e.CRC32)
	}
	return data, nil
}

// readError maps a short read to ErrFormat and anything else to ErrIO.
func readError(what string, offset int64, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s truncated at offset %d", ErrFormat, what, offset)
	}
	return fmt.Errorf("%w: read %s at offset %d: %w", ErrIO, what, offset, err)
}
