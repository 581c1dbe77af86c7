// Package remote provides a ByteSource backed by HTTP range requests, so an
// archive can be indexed with npz.New and its entries read without
// downloading the whole file.
//
// Entry headers are small and read sequentially, so reads are served from a
// bounded in-memory cache of fixed-size blocks. Every request after the
// initial probe is pinned to the probed ETag and Last-Modified values; if the
// remote file changes, reads fail with ErrChanged instead of mixing bytes
// from two versions.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
)

var (
	// ErrRangeUnsupported is returned when the server ignores Range headers.
	ErrRangeUnsupported = errors.New("remote: range requests not supported")

	// ErrChanged is returned when the remote content no longer matches the
	// version seen by NewSource.
	ErrChanged = errors.New("remote: content changed since probe")
)

// DefaultBlockSize is the size of each cached block.
const DefaultBlockSize int64 = 64 << 10

// DefaultMaxBlocks is the number of blocks kept in memory.
const DefaultMaxBlocks = 64

// Source implements random access reads via HTTP range requests.
// It satisfies npz.ByteSource and is safe for concurrent use.
type Source struct {
	url          string
	client       *http.Client
	headers      http.Header
	size         int64
	etag         string
	lastModified string
	blocks       *blockCache
	requests     atomic.Int64
	logger       *slog.Logger
}

// Option configures a Source.
type Option func(*sourceConfig)

type sourceConfig struct {
	client    *http.Client
	headers   http.Header
	blockSize int64
	maxBlocks int
	logger    *slog.Logger
}

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) Option {
	return func(c *sourceConfig) {
		c.client = client
	}
}

// WithHeader sets a header on each request, such as Authorization.
func WithHeader(key, value string) Option {
	return func(c *sourceConfig) {
		if c.headers == nil {
			c.headers = make(http.Header)
		}
		c.headers.Set(key, value)
	}
}

// WithBlockSize sets the cached block size in bytes (default: 64 KiB).
func WithBlockSize(n int64) Option {
	return func(c *sourceConfig) {
		c.blockSize = n
	}
}

// WithMaxBlocks sets how many blocks are cached (default: 64).
// Set n to 0 to send every read straight to the server.
func WithMaxBlocks(n int) Option {
	return func(c *sourceConfig) {
		c.maxBlocks = n
	}
}

// WithLogger sets the logger for remote reads.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *sourceConfig) {
		c.logger = logger
	}
}

// NewSource probes url with a one-byte range request to learn its size and
// version, and returns a Source for it.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	cfg := sourceConfig{
		client:    http.DefaultClient,
		blockSize: DefaultBlockSize,
		maxBlocks: DefaultMaxBlocks,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}
	if cfg.blockSize <= 0 {
		return nil, fmt.Errorf("remote: block size %d must be positive", cfg.blockSize)
	}
	s := &Source{
		url:     url,
		client:  cfg.client,
		headers: cfg.headers,
		logger:  cfg.logger,
	}
	if err := s.probe(ctx); err != nil {
		return nil, err
	}
	if cfg.maxBlocks > 0 {
		blocks, err := newBlockCache(cfg.blockSize, cfg.maxBlocks)
		if err != nil {
			return nil, err
		}
		s.blocks = blocks
	}
	s.log().Debug("remote source ready", "url", url, "size", s.size, "etag", s.etag)
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// Requests returns the number of HTTP requests sent so far, including the
// probe.
func (s *Source) Requests() int64 {
	return s.requests.Load()
}

// ReadAt reads len(p) bytes at off, serving them from cached blocks when
// caching is enabled.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("remote: read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}
	want := min(int64(len(p)), s.size-off)

	var n int
	if s.blocks == nil {
		data, err := s.fetch(context.Background(), off, want)
		if err != nil {
			return 0, err
		}
		n = copy(p, data)
	} else {
		var err error
		n, err = s.blocks.readAt(p[:want], off, s.fetchBlock)
		if err != nil {
			return n, err
		}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fetchBlock loads block idx, which is short at the end of the content.
func (s *Source) fetchBlock(idx, blockSize int64) ([]byte, error) {
	off := idx * blockSize
	return s.fetch(context.Background(), off, min(blockSize, s.size-off))
}

// fetch issues one range request for [off, off+length).
func (s *Source) fetch(ctx context.Context, off, length int64) ([]byte, error) {
	req, err := s.newRequest(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+length-1))
	if s.etag != "" && req.Header.Get("If-Match") == "" {
		req.Header.Set("If-Match", s.etag)
	}
	if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
		req.Header.Set("If-Unmodified-Since", s.lastModified)
	}

	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusPreconditionFailed:
		return nil, ErrChanged
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, io.EOF
	case http.StatusOK:
		return nil, ErrRangeUnsupported
	default:
		return nil, fmt.Errorf("remote: range request failed: %s", resp.Status)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		return nil, fmt.Errorf("remote: read range body: %w", err)
	}
	s.log().Debug("range fetched", "offset", off, "length", length)
	return buf, nil
}

func (s *Source) probe(ctx context.Context) error {
	req, err := s.newRequest(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		return ErrRangeUnsupported
	default:
		return fmt.Errorf("remote: range probe failed: %s", resp.Status)
	}

	size, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return err
	}
	s.size = size
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	return nil
}

func (s *Source) newRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}

func (s *Source) do(req *http.Request) (*http.Response, error) {
	s.requests.Add(1)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	return resp, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Source) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// parseContentRange extracts the complete length from "bytes a-b/size".
func parseContentRange(value string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return 0, fmt.Errorf("remote: invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("remote: invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("remote: invalid Content-Range %q", value)
	}
	return size, nil
}
