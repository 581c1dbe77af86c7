package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float32

func TestSliceRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("float64", func(t *testing.T) {
		t.Parallel()
		values := []float64{0, 1.5, -2.25, 1e300, 42}
		var buf bytes.Buffer
		require.NoError(t, EncodeSlice(&buf, values, WithBigEndian(true)))
		got, err := DecodeSlice[float64](&buf, WithBigEndian(true))
		require.NoError(t, err)
		assert.Equal(t, values, got)
	})

	t.Run("int16", func(t *testing.T) {
		t.Parallel()
		values := []int16{-32768, -1, 0, 1, 32767}
		var buf bytes.Buffer
		require.NoError(t, EncodeSlice(&buf, values, WithFormat(FormatZstd)))
		got, err := DecodeSlice[int16](&buf, WithFormat(FormatZstd))
		require.NoError(t, err)
		assert.Equal(t, values, got)
	})

	t.Run("named type", func(t *testing.T) {
		t.Parallel()
		values := []celsius{-40, 0, 36.6}
		var buf bytes.Buffer
		require.NoError(t, EncodeSlice(&buf, values, WithFormat(FormatRaw), WithElementSize(1)))
		got, err := DecodeSlice[celsius](&buf, WithFormat(FormatRaw))
		require.NoError(t, err)
		assert.Equal(t, values, got)
	})
}

func TestDecodeSliceWidthMismatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, EncodeSlice(&buf, []uint8{1, 2, 3}))
	_, err := DecodeSlice[uint32](&buf)
	require.ErrorIs(t, err, ErrIntegrity)
}
