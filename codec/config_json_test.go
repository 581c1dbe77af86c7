package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/npz/internal/endian"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, "gzip", cfg.Name)
	assert.Equal(t, DefaultLevel, cfg.Level)
	assert.Equal(t, endian.NativeBigEndian(), cfg.BigEndian)
	assert.NotEmpty(t, cfg.Version)
}

func TestConfigPersistsOnlyLevel(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Level = 7
	cfg.BigEndian = true

	var buf bytes.Buffer
	_, err := cfg.WriteTo(&buf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":7}`, buf.String())

	restored := DefaultConfig()
	_, err = restored.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, 7, restored.Level)
	assert.Equal(t, endian.NativeBigEndian(), restored.BigEndian)
	assert.Equal(t, "gzip", restored.Name)

	_, err = restored.ReadFrom(strings.NewReader("{"))
	require.ErrorIs(t, err, ErrFormat)
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Name = "zlib"
	cfg.Level = 9
	opts, err := cfg.Options()
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 1000)
	out, err := CompressBytes(payload, opts...)
	require.NoError(t, err)
	got, err := Decompress(bytes.NewReader(out), opts...)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	cfg.Name = "brotli"
	_, err = cfg.Options()
	require.ErrorIs(t, err, ErrUnsupported)
}
