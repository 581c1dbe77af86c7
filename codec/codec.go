package codec

import (
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/npz/internal/endian"
	"github.com/meigma/npz/internal/npztype"
)

// Re-exported sentinel errors.
var (
	ErrIO          = npztype.ErrIO
	ErrFormat      = npztype.ErrFormat
	ErrIntegrity   = npztype.ErrIntegrity
	ErrUnsupported = npztype.ErrUnsupported
)

// Format selects the stream container around the compressed data.
type Format uint8

const (
	// FormatGzip wraps DEFLATE data in a gzip member.
	FormatGzip Format = iota
	// FormatZlib wraps DEFLATE data in a zlib stream.
	FormatZlib
	// FormatRaw is bare DEFLATE with no header or trailer.
	FormatRaw
	// FormatZstd is a Zstandard frame.
	FormatZstd
)

// String returns the short name of the format.
func (f Format) String() string {
	switch f {
	case FormatGzip:
		return "gzip"
	case FormatZlib:
		return "zlib"
	case FormatRaw:
		return "deflate"
	case FormatZstd:
		return "zstd"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat maps a short format name back to its Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "gzip":
		return FormatGzip, nil
	case "zlib":
		return FormatZlib, nil
	case "deflate", "raw":
		return FormatRaw, nil
	case "zstd":
		return FormatZstd, nil
	default:
		return 0, fmt.Errorf("%w: format %q", ErrUnsupported, name)
	}
}

const (
	// DefaultChunkSize is the input and output chunk capacity in bytes.
	DefaultChunkSize = 0x4000

	// DefaultLevel favors speed over ratio.
	DefaultLevel = 1
)

// Option configures a compress or decompress call.
type Option func(*config)

type config struct {
	format    Format
	level     int
	bigEndian bool
	width     int
	chunkSize int
	maxOutput uint64
	pool      *DecompressPool
	logger    *slog.Logger
}

// WithFormat selects the stream format (default: FormatGzip).
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithLevel sets the compression level (default: 1).
//
// DEFLATE-based formats accept -2 (Huffman only) through 9. Zstandard accepts
// 1 through 22 and maps them onto the encoder's speed presets.
func WithLevel(level int) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithBigEndian sets the byte order of elements inside the stream
// (default: the platform's native order).
func WithBigEndian(enabled bool) Option {
	return func(c *config) {
		c.bigEndian = enabled
	}
}

// WithElementSize sets the element width in bytes: 1, 2, 4 or 8 (default: 1).
func WithElementSize(n int) Option {
	return func(c *config) {
		c.width = n
	}
}

// WithChunkSize sets the chunk capacity in bytes (default: 16 KiB). The
// value is rounded down to a whole number of elements.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// WithMaxOutput caps the decoded size in bytes. Set limit to 0 to disable
// the limit.
func WithMaxOutput(limit uint64) Option {
	return func(c *config) {
		c.maxOutput = limit
	}
}

// WithPool supplies the decoder pool used for FormatZstd streams.
func WithPool(p *DecompressPool) Option {
	return func(c *config) {
		c.pool = p
	}
}

// WithLogger sets the logger for codec operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{
		format:    FormatGzip,
		level:     DefaultLevel,
		bigEndian: endian.NativeBigEndian(),
		width:     1,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *config) validate() error {
	if !endian.ValidWidth(c.width) {
		return fmt.Errorf("%w: element size %d", ErrUnsupported, c.width)
	}
	if c.chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d", ErrUnsupported, c.chunkSize)
	}
	switch c.format {
	case FormatGzip, FormatZlib, FormatRaw:
		if c.level < flate.HuffmanOnly || c.level > flate.BestCompression {
			return fmt.Errorf("%w: %s level %d", ErrUnsupported, c.format, c.level)
		}
	case FormatZstd:
		if c.level < 1 || c.level > 22 {
			return fmt.Errorf("%w: zstd level %d", ErrUnsupported, c.level)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, c.format)
	}
	return nil
}

// swap reports whether elements must be byte-swapped between the stream and
// memory.
func (c *config) swap() bool {
	return endian.NeedsSwap(c.width, c.bigEndian)
}

// alignedChunk returns the chunk size rounded down to whole elements, never
// smaller than one element.
func (c *config) alignedChunk() int {
	n := c.chunkSize - c.chunkSize%c.width
	if n < c.width {
		n = c.width
	}
	return n
}

func (c *config) zstdLevel() zstd.EncoderLevel {
	return zstd.EncoderLevelFromZstd(c.level)
}

func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
