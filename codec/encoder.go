package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/npz/internal/endian"
	"github.com/meigma/npz/internal/ioutil"
)

// Compress encodes src as one compressed stream and writes it to dst.
// len(src) must be a whole number of elements. dst receives nothing unless
// the whole stream was produced.
func Compress(dst io.Writer, src []byte, opts ...Option) error {
	out, err := CompressBytes(src, opts...)
	if err != nil {
		return err
	}
	if _, err := dst.Write(out); err != nil {
		return fmt.Errorf("%w: write compressed stream: %w", ErrIO, err)
	}
	return nil
}

// CompressBytes encodes src as one compressed stream and returns it.
func CompressBytes(src []byte, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if len(src)%cfg.width != 0 {
		return nil, fmt.Errorf("%w: input of %d bytes ends in a partial %d-byte element",
			ErrIntegrity, len(src), cfg.width)
	}
	enc, err := newEncoder(cfg)
	if err != nil {
		return nil, err
	}
	chunk := cfg.alignedChunk()
	for off := 0; off < len(src); off += chunk {
		end := min(off+chunk, len(src))
		if err := enc.write(src[off:end]); err != nil {
			enc.abort()
			return nil, err
		}
	}
	return enc.finish(len(src))
}

// CompressStream encodes everything read from r as one compressed stream and
// writes it to dst. Input is pulled one chunk at a time; a final chunk that
// ends in a partial element is rejected.
func CompressStream(dst io.Writer, r io.Reader, opts ...Option) error {
	cfg, err := newConfig(opts)
	if err != nil {
		return err
	}
	enc, err := newEncoder(cfg)
	if err != nil {
		return err
	}
	in := make([]byte, cfg.alignedChunk())
	total := 0
	for {
		n, rerr := fill(r, in)
		if rerr != nil && !errors.Is(rerr, io.EOF) && !errors.Is(rerr, io.ErrUnexpectedEOF) {
			enc.abort()
			return fmt.Errorf("%w: read input: %w", ErrIO, rerr)
		}
		if n%cfg.width != 0 {
			enc.abort()
			return fmt.Errorf("%w: input ends in a partial %d-byte element", ErrIntegrity, cfg.width)
		}
		if n > 0 {
			if err := enc.write(in[:n]); err != nil {
				enc.abort()
				return err
			}
			total += n
		}
		if rerr != nil {
			break
		}
	}
	out, err := enc.finish(total)
	if err != nil {
		return err
	}
	if _, err := dst.Write(out); err != nil {
		return fmt.Errorf("%w: write compressed stream: %w", ErrIO, err)
	}
	return nil
}

// encoder holds the per-call state of one compression stream.
type encoder struct {
	cfg     *config
	st      state
	swap    bool
	scratch []byte
	acc     bytes.Buffer
	sink    *ioutil.CountingWriter
	out     *bufio.Writer
	eng     io.WriteCloser
}

func newEncoder(cfg *config) (*encoder, error) {
	e := &encoder{cfg: cfg, swap: cfg.swap()}
	e.sink = &ioutil.CountingWriter{W: &e.acc}
	e.out = bufio.NewWriterSize(e.sink, cfg.alignedChunk())
	eng, err := newEngineWriter(cfg, e.out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s encoder: %w", ErrUnsupported, cfg.format, err)
	}
	e.eng = eng
	if e.swap {
		e.scratch = make([]byte, cfg.alignedChunk())
	}
	return e, nil
}

func newEngineWriter(cfg *config, w io.Writer) (io.WriteCloser, error) {
	switch cfg.format {
	case FormatGzip:
		return gzip.NewWriterLevel(w, cfg.level)
	case FormatZlib:
		return zlib.NewWriterLevel(w, cfg.level)
	case FormatRaw:
		return flate.NewWriter(w, cfg.level)
	case FormatZstd:
		return zstd.NewWriter(w,
			zstd.WithEncoderLevel(cfg.zstdLevel()),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true),
		)
	default:
		return nil, fmt.Errorf("unknown format %d", cfg.format)
	}
}

// write feeds one chunk of whole elements to the engine.
func (e *encoder) write(chunk []byte) error {
	e.st = stateProcessing
	if e.swap {
		buf := e.scratch[:len(chunk)]
		copy(buf, chunk)
		if err := endian.Swap(buf, e.cfg.width); err != nil {
			return fmt.Errorf("%w: %w", ErrIntegrity, err)
		}
		chunk = buf
	}
	if _, err := e.eng.Write(chunk); err != nil {
		return fmt.Errorf("%w: %s engine: %w", ErrFormat, e.cfg.format, err)
	}
	return nil
}

// finish performs the final flush and returns the complete stream.
func (e *encoder) finish(inputBytes int) ([]byte, error) {
	if err := e.eng.Close(); err != nil {
		e.st = stateClosed
		return nil, fmt.Errorf("%w: %s engine: %w", ErrFormat, e.cfg.format, err)
	}
	e.st = stateDrained
	if err := e.out.Flush(); err != nil {
		e.st = stateClosed
		return nil, fmt.Errorf("%w: flush compressed output: %w", ErrIO, err)
	}
	e.st = stateClosed
	e.cfg.log().Debug("stream compressed",
		"format", e.cfg.format.String(),
		"level", e.cfg.level,
		"input_bytes", inputBytes,
		"output_bytes", e.sink.N)
	return e.acc.Bytes(), nil
}

// abort releases the engine after a failure. Buffered output is discarded.
func (e *encoder) abort() {
	if e.st == stateClosed {
		return
	}
	_ = e.eng.Close() //nolint:errcheck // output is discarded
	e.acc.Reset()
	e.st = stateClosed
}
