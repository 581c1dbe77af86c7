package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/meigma/npz/internal/endian"
	"github.com/meigma/npz/internal/ioutil"
)

// Decompress decodes one compressed stream from r and returns the
// uncompressed bytes, converted to native element order.
//
// The stream must end cleanly: a truncated or corrupt stream returns
// ErrFormat and no output. Bytes following the end of the stream are left
// unread only as far as the chunked input buffer allows; callers that need
// exact alignment bound r themselves.
func Decompress(r io.Reader, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return decode(cfg, r)
}

// DecompressTo decodes one compressed stream from r and writes the
// uncompressed bytes to dst. dst receives nothing unless the whole stream
// decoded successfully. It returns the number of bytes written.
func DecompressTo(dst io.Writer, r io.Reader, opts ...Option) (int64, error) {
	out, err := Decompress(r, opts...)
	if err != nil {
		return 0, err
	}
	n, err := dst.Write(out)
	if err != nil {
		return int64(n), fmt.Errorf("%w: write decompressed stream: %w", ErrIO, err)
	}
	return int64(n), nil
}

func decode(cfg *config, r io.Reader) ([]byte, error) {
	src := &sourceReader{r: r}
	counted := &ioutil.CountingReader{R: src}
	in := bufio.NewReaderSize(counted, cfg.alignedChunk())

	st := stateInit
	eng, release, err := newEngineReader(cfg, in)
	if err != nil {
		return nil, classify(cfg, src, err)
	}
	defer func() {
		release()
		st = stateClosed
	}()

	swap := cfg.swap()
	out := make([]byte, cfg.alignedChunk())
	var acc []byte
	st = stateProcessing
	for st == stateProcessing {
		n, rerr := fill(eng, out)
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, classify(cfg, src, rerr)
		}
		if n%cfg.width != 0 {
			return nil, fmt.Errorf("%w: stream ends in a partial %d-byte element", ErrIntegrity, cfg.width)
		}
		chunk := out[:n]
		if swap {
			if err := endian.Swap(chunk, cfg.width); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
			}
		}
		if cfg.maxOutput > 0 && uint64(len(acc))+uint64(n) > cfg.maxOutput {
			return nil, fmt.Errorf("%w: decoded size exceeds %d bytes", ErrIntegrity, cfg.maxOutput)
		}
		acc = append(acc, chunk...)
		if rerr != nil {
			st = stateDrained
		}
	}

	cfg.log().Debug("stream decompressed",
		"format", cfg.format.String(),
		"input_bytes", counted.N,
		"output_bytes", len(acc))
	if acc == nil {
		acc = []byte{}
	}
	return acc, nil
}

// classify wraps an engine error as ErrIO when the source failed and as
// ErrFormat otherwise.
func classify(cfg *config, src *sourceReader, err error) error {
	if src.err != nil {
		return fmt.Errorf("%w: read %s stream: %w", ErrIO, cfg.format, src.err)
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %s stream: %w", ErrFormat, cfg.format, err)
}

func newEngineReader(cfg *config, r io.Reader) (io.Reader, func(), error) {
	switch cfg.format {
	case FormatGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		zr.Multistream(false)
		return zr, func() { _ = zr.Close() }, nil
	case FormatZlib:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case FormatRaw:
		fr := flate.NewReader(r)
		return fr, func() { _ = fr.Close() }, nil
	case FormatZstd:
		pool := cfg.pool
		if pool == nil {
			pool = defaultPool
		}
		dec, release, err := pool.Get(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, release, nil
	default:
		return nil, nil, fmt.Errorf("unknown format %d", cfg.format)
	}
}
