package npz

import (
	"log/slog"
	"time"

	"github.com/meigma/npz/codec"
)

// DefaultMaxEntrySize is the per-entry size limit used when no
// WithMaxEntrySize option is set.
const DefaultMaxEntrySize = 1 << 30

// defaultReadConcurrency is used by ReadAll when no WithReadConcurrency
// option is set.
const defaultReadConcurrency = 4

// Option configures archive reads.
type Option func(*readConfig)

type readConfig struct {
	maxEntrySize     uint64
	maxDecoderMemory uint64
	readConcurrency  int
	progress         ProgressFunc
	logger           *slog.Logger
	pool             *codec.DecompressPool // nil uses the codec's shared pool
}

// WithMaxEntrySize limits the compressed and uncompressed size of every
// entry (default: 1 GiB). Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(c *readConfig) {
		c.maxEntrySize = limit
	}
}

// WithMaxDecoderMemory limits the memory used by each zstd decoder.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(c *readConfig) {
		c.maxDecoderMemory = limit
	}
}

// WithReadConcurrency sets the number of entries Archive.ReadAll decodes
// at once (default: 4). Values < 1 are treated as 1.
func WithReadConcurrency(n int) Option {
	return func(c *readConfig) {
		if n < 1 {
			n = 1
		}
		c.readConcurrency = n
	}
}

// WithProgress sets a callback that receives an event for every entry
// header visited and every payload materialized.
func WithProgress(fn ProgressFunc) Option {
	return func(c *readConfig) {
		c.progress = fn
	}
}

// WithLogger sets the logger for read operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *readConfig) {
		c.logger = logger
	}
}

func newReadConfig(opts []Option) *readConfig {
	c := &readConfig{
		maxEntrySize:    DefaultMaxEntrySize,
		readConcurrency: defaultReadConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxDecoderMemory != 0 {
		c.pool = codec.NewDecompressPool(c.maxDecoderMemory)
	}
	return c
}

// reportProgress sends a progress event if a callback is configured.
func (c *readConfig) reportProgress(stage ProgressStage, name string, done int, n uint64) {
	if c.progress == nil {
		return
	}
	c.progress(ProgressEvent{Stage: stage, Name: name, EntriesDone: done, Bytes: n})
}

// log returns the logger, falling back to a discard logger if nil.
func (c *readConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// AppendOption configures Append.
type AppendOption func(*appendConfig)

type appendConfig struct {
	method   Method
	level    int
	truncate bool
	modTime  time.Time
	atomic   bool
	lock     bool
	progress ProgressFunc
	logger   *slog.Logger
}

// AppendWithCompression sets the compression method (default: MethodStored).
func AppendWithCompression(m Method) AppendOption {
	return func(c *appendConfig) {
		c.method = m
	}
}

// AppendWithLevel sets the compression level (default: 1). It is ignored
// for stored entries.
func AppendWithLevel(level int) AppendOption {
	return func(c *appendConfig) {
		c.level = level
	}
}

// AppendWithTruncate discards any existing archive at the path and starts a
// fresh one holding only the new entry.
func AppendWithTruncate(enabled bool) AppendOption {
	return func(c *appendConfig) {
		c.truncate = enabled
	}
}

// AppendWithModTime sets the modification time recorded for the entry
// (default: the current time).
func AppendWithModTime(t time.Time) AppendOption {
	return func(c *appendConfig) {
		c.modTime = t
	}
}

// AppendWithAtomicReplace writes the grown archive to a temporary file in
// the same directory and renames it over the original (default: false).
//
// The default updates the file in place; a crash part way through can then
// leave an archive whose end record is missing.
func AppendWithAtomicReplace(enabled bool) AppendOption {
	return func(c *appendConfig) {
		c.atomic = enabled
	}
}

// AppendWithLock holds an exclusive advisory lock on the archive for the
// whole call (default: true). Locking is a no-op on platforms without
// flock; callers there must serialize appends themselves.
func AppendWithLock(enabled bool) AppendOption {
	return func(c *appendConfig) {
		c.lock = enabled
	}
}

// AppendWithProgress sets a callback that receives a StageWriting event once
// the entry has been written.
func AppendWithProgress(fn ProgressFunc) AppendOption {
	return func(c *appendConfig) {
		c.progress = fn
	}
}

// AppendWithLogger sets the logger for Append.
// If not set, logging is disabled.
func AppendWithLogger(logger *slog.Logger) AppendOption {
	return func(c *appendConfig) {
		c.logger = logger
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *appendConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
