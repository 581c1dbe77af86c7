package endian

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		width int
		in    []byte
		want  []byte
	}{
		{"width 1 untouched", 1, []byte{1, 2, 3}, []byte{1, 2, 3}},
		{"width 2", 2, []byte{1, 2, 3, 4}, []byte{2, 1, 4, 3}},
		{"width 4", 4, []byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{4, 3, 2, 1, 8, 7, 6, 5}},
		{"width 8", 8, []byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{8, 7, 6, 5, 4, 3, 2, 1}},
		{"empty", 8, []byte{}, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := bytes.Clone(tt.in)
			require.NoError(t, Swap(buf, tt.width))
			assert.Equal(t, tt.want, buf)
		})
	}
}

func TestSwap_Involution(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 8*3)
	binary.LittleEndian.PutUint64(buf[0:], 0x0102030405060708)
	binary.LittleEndian.PutUint64(buf[8:], 42)
	binary.LittleEndian.PutUint64(buf[16:], 1<<63)
	orig := append([]byte(nil), buf...)

	require.NoError(t, Swap(buf, 8))
	assert.Equal(t, uint64(0x0102030405060708), binary.BigEndian.Uint64(buf[0:]))
	require.NoError(t, Swap(buf, 8))
	assert.Equal(t, orig, buf)
}

func TestSwap_Errors(t *testing.T) {
	t.Parallel()

	require.Error(t, Swap([]byte{1, 2, 3}, 2))
	require.Error(t, Swap([]byte{1, 2, 3}, 3))
}

func TestNeedsSwap(t *testing.T) {
	t.Parallel()

	native := NativeBigEndian()
	assert.False(t, NeedsSwap(1, !native))
	assert.False(t, NeedsSwap(4, native))
	assert.True(t, NeedsSwap(4, !native))
	assert.True(t, NeedsSwap(8, !native))
}
