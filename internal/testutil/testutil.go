// Package testutil provides test doubles and fixtures shared by package
// tests.
package testutil

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/npz/internal/npztype"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data  []byte
	reads atomic.Int64
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.reads.Add(1)
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if off+int64(n) >= int64(len(m.data)) && n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Reads returns the number of ReadAt calls served.
func (m *MockByteSource) Reads() int64 {
	return m.reads.Load()
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// StreamOnly hides every method of r except Read, forcing callers down
// their non-seeking path.
type StreamOnly struct {
	R io.Reader
}

// Read implements io.Reader.
func (s StreamOnly) Read(p []byte) (int, error) {
	return s.R.Read(p)
}

// Float64Payload encodes values as consecutive little-endian float64s.
func Float64Payload(values ...float64) []byte {
	buf := make([]byte, 0, len(values)*8)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

// RampPayload returns n float64 values 0, 1, ..., n-1 encoded with
// Float64Payload.
func RampPayload(n int) []byte {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	return Float64Payload(values...)
}

// ProgressRecorder collects progress events and is safe for concurrent use.
type ProgressRecorder struct {
	mu     sync.Mutex
	events []npztype.ProgressEvent
}

// Record appends ev. Its signature matches npztype.ProgressFunc.
func (r *ProgressRecorder) Record(ev npztype.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Count returns the number of events recorded for stage.
func (r *ProgressRecorder) Count(stage npztype.ProgressStage) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Stage == stage {
			n++
		}
	}
	return n
}

// ReadFile reads path or fails the test.
func ReadFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// WriteFile writes data to path or fails the test.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// FlipByte inverts the byte at offset in the file at path.
func FlipByte(t testing.TB, path string, offset int64) {
	t.Helper()
	data := ReadFile(t, path)
	require.Less(t, offset, int64(len(data)))
	data[offset] ^= 0xFF
	WriteFile(t, path, data)
}
