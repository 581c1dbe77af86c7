package remote

import (
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// blockCache keeps the most recently used fixed-size blocks of a source.
// Concurrent misses on the same block share one fetch.
type blockCache struct {
	blockSize int64
	blocks    *lru.Cache[int64, []byte]
	fetches   singleflight.Group
}

func newBlockCache(blockSize int64, maxBlocks int) (*blockCache, error) {
	blocks, err := lru.New[int64, []byte](maxBlocks)
	if err != nil {
		return nil, fmt.Errorf("remote: block cache: %w", err)
	}
	return &blockCache{blockSize: blockSize, blocks: blocks}, nil
}

// readAt fills p from the blocks covering [off, off+len(p)). p must not
// extend past the end of the source.
func (c *blockCache) readAt(p []byte, off int64, fetch func(idx, blockSize int64) ([]byte, error)) (int, error) {
	n := 0
	for n < len(p) {
		pos := off + int64(n)
		idx := pos / c.blockSize
		data, err := c.get(idx, fetch)
		if err != nil {
			return n, err
		}
		within := pos - idx*c.blockSize
		if within >= int64(len(data)) {
			break
		}
		n += copy(p[n:], data[within:])
	}
	return n, nil
}

func (c *blockCache) get(idx int64, fetch func(idx, blockSize int64) ([]byte, error)) ([]byte, error) {
	if data, ok := c.blocks.Get(idx); ok {
		return data, nil
	}
	v, err, _ := c.fetches.Do(strconv.FormatInt(idx, 10), func() (any, error) {
		data, err := fetch(idx, c.blockSize)
		if err != nil {
			return nil, err
		}
		c.blocks.Add(idx, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	data, _ := v.([]byte)
	return data, nil
}

// cached returns the number of cached blocks.
func (c *blockCache) cached() int {
	return c.blocks.Len()
}
