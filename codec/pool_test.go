package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressPoolReuse(t *testing.T) {
	t.Parallel()

	pool := NewDecompressPool(64<<20, PoolWithLowmem(true))
	for i := range 5 {
		payload := bytes.Repeat([]byte{byte(i)}, 1000*(i+1))
		out, err := CompressBytes(payload, WithFormat(FormatZstd), WithLevel(3))
		require.NoError(t, err)

		got, err := Decompress(bytes.NewReader(out), WithFormat(FormatZstd), WithPool(pool))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}

func TestNilPoolBuildsOneOffDecoder(t *testing.T) {
	t.Parallel()

	out, err := CompressBytes([]byte("hello"), WithFormat(FormatZstd))
	require.NoError(t, err)

	var pool *DecompressPool
	dec, release, err := pool.Get(bytes.NewReader(out))
	require.NoError(t, err)
	defer release()

	var got bytes.Buffer
	_, err = got.ReadFrom(dec)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.String())
}
