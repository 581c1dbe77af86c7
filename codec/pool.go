package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// defaultPool serves zstd streams decoded without WithPool.
var defaultPool = NewDecompressPool(0)

// DecompressPool manages reusable zstd decoders to reduce allocation
// overhead when many entries are read.
type DecompressPool struct {
	pool             *sync.Pool
	maxDecoderMemory uint64
	lowmem           bool
}

// PoolOption configures a DecompressPool.
type PoolOption func(*DecompressPool)

// PoolWithLowmem enables or disables low-memory mode for decoders
// (default: false).
func PoolWithLowmem(enabled bool) PoolOption {
	return func(p *DecompressPool) {
		p.lowmem = enabled
	}
}

// NewDecompressPool creates a new pool for zstd decoders.
// If maxMemory is 0, no memory limit is applied to decoders.
func NewDecompressPool(maxMemory uint64, opts ...PoolOption) *DecompressPool {
	p := &DecompressPool{maxDecoderMemory: maxMemory}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = &sync.Pool{
		New: func() any {
			dec, err := p.newDecoder(nil)
			if err != nil {
				return nil
			}
			return dec
		},
	}
	return p
}

// Get returns a decoder configured to read from r.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *DecompressPool) Get(r io.Reader) (*zstd.Decoder, func(), error) {
	if p == nil || p.pool == nil {
		dec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	}

	dec, ok := p.pool.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		// Pool's New failed; build a one-off decoder.
		newDec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return newDec, newDec.Close, nil
	}

	if err := dec.Reset(r); err != nil {
		dec.Close()
		newDec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return newDec, newDec.Close, nil
	}

	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		p.pool.Put(dec)
	}, nil
}

// newDecoder creates a single-goroutine decoder with the configured limits.
func (p *DecompressPool) newDecoder(r io.Reader) (*zstd.Decoder, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if p != nil {
		opts = append(opts, zstd.WithDecoderLowmem(p.lowmem))
		if p.maxDecoderMemory != 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(p.maxDecoderMemory))
		}
	}
	return zstd.NewReader(r, opts...)
}
