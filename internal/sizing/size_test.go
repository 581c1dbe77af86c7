package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestToUint16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      int
		want    uint16
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"max", math.MaxUint16, math.MaxUint16, false},
		{"too large", math.MaxUint16 + 1, 0, true},
		{"negative", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ToUint16(tt.in, errOverflow)
			if tt.wantErr {
				require.ErrorIs(t, err, errOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToUint32(t *testing.T) {
	t.Parallel()

	got, err := ToUint32(math.MaxUint32, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = ToUint32(math.MaxUint32+1, errOverflow)
	require.ErrorIs(t, err, errOverflow)

	_, err = ToUint32(-5, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}

func TestAddInt64(t *testing.T) {
	t.Parallel()

	sum, ok := AddInt64(40, 2)
	assert.True(t, ok)
	assert.Equal(t, int64(42), sum)

	_, ok = AddInt64(math.MaxInt64, 1)
	assert.False(t, ok)

	_, ok = AddInt64(-1, 1)
	assert.False(t, ok)
}

func TestWithinLimit(t *testing.T) {
	t.Parallel()

	assert.True(t, WithinLimit(10, 0))
	assert.True(t, WithinLimit(10, 10))
	assert.False(t, WithinLimit(11, 10))
}

func TestToInt(t *testing.T) {
	t.Parallel()

	n, err := ToInt(64, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	_, err = ToInt(math.MaxUint64, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}
