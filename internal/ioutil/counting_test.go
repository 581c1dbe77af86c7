package ioutil

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingReader(t *testing.T) {
	t.Parallel()

	cr := &CountingReader{R: strings.NewReader("hello, archive")}
	data, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, "hello, archive", string(data))
	assert.Equal(t, uint64(len(data)), cr.N)
}

func TestCountingReader_Overflow(t *testing.T) {
	t.Parallel()

	cr := &CountingReader{R: strings.NewReader("xy"), N: ^uint64(0) - 1}
	_, err := cr.Read(make([]byte, 2))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCountingWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}
	_, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("defg"))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cw.N)
	assert.Equal(t, "abcdefg", buf.String())
}
