package npz

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/npz/internal/testutil"
	"github.com/meigma/npz/internal/zipfmt"
)

func archivePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "arrays.npz")
}

func TestAppendStoredLayout(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	payload := testutil.RampPayload(8)
	require.Len(t, payload, 64)
	require.NoError(t, Append(path, "a", payload))

	data := testutil.ReadFile(t, path)
	// header(30) + "a.npy"(5) + payload(64) + record(46) + "a.npy"(5) + end(22)
	require.Len(t, data, 172)

	h, err := zipfmt.ParseLocalHeader(data[:zipfmt.LocalHeaderSize])
	require.NoError(t, err)
	assert.Equal(t, MethodStored, h.Method)
	assert.Equal(t, uint32(64), h.UncompressedSize)
	assert.Equal(t, uint32(64), h.CompressedSize)
	assert.Equal(t, zipfmt.CRC32(payload), h.CRC32)
	assert.Equal(t, uint16(zipfmt.VersionNeeded), h.VersionNeeded)
	assert.Equal(t, "a.npy", string(data[30:35]))
	assert.Equal(t, payload, data[35:99])

	end, err := zipfmt.ParseEndRecord(data[len(data)-zipfmt.EndRecordSize:])
	require.NoError(t, err)
	assert.Equal(t, uint16(1), end.EntriesTotal)
	assert.Equal(t, uint32(99), end.IndexOffset)
	assert.Equal(t, uint32(51), end.IndexSize)
	assert.Equal(t, zipfmt.CentralRecordSignature, zipfmt.Uint32At(data, int(end.IndexOffset)))

	rec, _, err := zipfmt.ParseCentralRecord(data[end.IndexOffset:])
	require.NoError(t, err)
	assert.Equal(t, uint16(zipfmt.VersionMadeBy), rec.VersionMadeBy)
	assert.Equal(t, zipfmt.ExternalAttrs, rec.ExternalAttrs)
	assert.Equal(t, uint32(0), rec.LocalOffset)
	assert.Equal(t, "a.npy", rec.Name)
}

func TestAppendPreservesPriorEntries(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	first := testutil.Float64Payload(1, 2, 3)
	second := testutil.Float64Payload(4, 5, 6, 7)

	require.NoError(t, Append(path, "first", first))
	before := testutil.ReadFile(t, path)
	oldEnd, err := zipfmt.ParseEndRecord(before[len(before)-zipfmt.EndRecordSize:])
	require.NoError(t, err)
	oldIndex := before[oldEnd.IndexOffset : oldEnd.IndexOffset+oldEnd.IndexSize]

	require.NoError(t, Append(path, "second", second, AppendWithCompression(MethodDeflate)))
	after := testutil.ReadFile(t, path)

	assert.Equal(t, before[:oldEnd.IndexOffset], after[:oldEnd.IndexOffset], "prior entry bytes unchanged")

	end, err := zipfmt.ParseEndRecord(after[len(after)-zipfmt.EndRecordSize:])
	require.NoError(t, err)
	assert.Equal(t, uint16(2), end.EntriesThisDisk)
	assert.Equal(t, uint16(2), end.EntriesTotal)
	assert.Equal(t, zipfmt.CentralRecordSignature, zipfmt.Uint32At(after, int(end.IndexOffset)))

	index := after[end.IndexOffset : end.IndexOffset+end.IndexSize]
	assert.Equal(t, oldIndex, index[:len(oldIndex)], "prior records copied byte for byte")
	assert.Len(t, index, len(oldIndex)+zipfmt.CentralRecordSize+len("second.npy"))

	arrays, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"first": first, "second": second}, arrays)
}

func TestAppendCompressedLevelOne(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	payload := testutil.RampPayload(4096)
	require.NoError(t, Append(path, "ramp", payload,
		AppendWithCompression(MethodDeflate),
		AppendWithLevel(1),
	))

	data := testutil.ReadFile(t, path)
	h, err := zipfmt.ParseLocalHeader(data[:zipfmt.LocalHeaderSize])
	require.NoError(t, err)
	assert.Equal(t, MethodDeflate, h.Method)
	assert.Less(t, h.CompressedSize, h.UncompressedSize)

	end, err := zipfmt.ParseEndRecord(data[len(data)-zipfmt.EndRecordSize:])
	require.NoError(t, err)
	payloadStart := uint32(zipfmt.LocalHeaderSize + len("ramp.npy"))
	assert.Equal(t, end.IndexOffset-payloadStart, h.CompressedSize, "header size matches bytes written")

	rec, _, err := zipfmt.ParseCentralRecord(data[end.IndexOffset:])
	require.NoError(t, err)
	assert.Equal(t, h.CompressedSize, rec.CompressedSize)
	assert.Equal(t, h.CRC32, rec.CRC32)

	got, err := LoadFileEntry(path, "ramp")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestAppendMethods(t *testing.T) {
	t.Parallel()

	payload := testutil.RampPayload(1000)
	for _, m := range []Method{MethodStored, MethodDeflate, MethodZstd} {
		t.Run(m.String(), func(t *testing.T) {
			t.Parallel()

			path := archivePath(t)
			require.NoError(t, Append(path, "x", payload, AppendWithCompression(m)))
			require.NoError(t, Append(path, "y", payload[:80], AppendWithCompression(m), AppendWithLevel(3)))

			arrays, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, payload, arrays["x"])
			assert.Equal(t, payload[:80], arrays["y"])
		})
	}
}

func TestAppendEmptyPayload(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	require.NoError(t, Append(path, "empty", nil))
	require.NoError(t, Append(path, "empty_deflate", []byte{}, AppendWithCompression(MethodDeflate)))

	arrays, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, arrays["empty"])
	assert.Empty(t, arrays["empty_deflate"])
	assert.Len(t, arrays, 2)
}

func TestAppendToEmptyFile(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	testutil.WriteFile(t, path, nil)
	require.NoError(t, Append(path, "a", []byte("abcd")))

	got, err := LoadFileEntry(path, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), got)
}

func TestAppendTruncate(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	require.NoError(t, Append(path, "old", testutil.RampPayload(100)))
	require.NoError(t, Append(path, "new", []byte("fresh"), AppendWithTruncate(true)))

	arrays, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"new": []byte("fresh")}, arrays)
	assert.Len(t, testutil.ReadFile(t, path), zipfmt.LocalHeaderSize+7+5+zipfmt.CentralRecordSize+7+zipfmt.EndRecordSize)
}

func TestAppendAtomicReplace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "arrays.npz")
	require.NoError(t, Append(path, "a", []byte("first"), AppendWithAtomicReplace(true)))
	require.NoError(t, os.Chmod(path, 0o640))
	require.NoError(t, Append(path, "b", []byte("second"), AppendWithAtomicReplace(true)))

	arrays, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("first"), "b": []byte("second")}, arrays)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestAppendDuplicateNames(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	require.NoError(t, Append(path, "dup", []byte("one")))
	require.NoError(t, Append(path, "dup", []byte("two")))

	arrays, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"dup": []byte("one")}, arrays)

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, 2, a.Len())
	got, err := a.ReadEntry("dup")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)
}

func TestAppendModTime(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	when := time.Date(2024, time.May, 6, 7, 8, 10, 0, time.Local)
	require.NoError(t, Append(path, "a", []byte("x"), AppendWithModTime(when)))

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()
	e, ok := a.Lookup("a")
	require.True(t, ok)
	assert.True(t, when.Equal(e.Modified()), "got %v", e.Modified())
	assert.Equal(t, zipfmt.DOSTime(7, 8, 10), e.ModTime)
	assert.Equal(t, zipfmt.DOSDate(2024, 5, 6), e.ModDate)
}

func TestAppendProgress(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	var rec testutil.ProgressRecorder
	require.NoError(t, Append(path, "a", []byte("x"), AppendWithProgress(rec.Record)))
	require.NoError(t, Append(path, "b", []byte("y"), AppendWithProgress(rec.Record)))
	assert.Equal(t, 2, rec.Count(StageWriting))
}

func TestAppendRejectsBadArchives(t *testing.T) {
	t.Parallel()

	valid := func(t *testing.T) []byte {
		t.Helper()
		path := archivePath(t)
		require.NoError(t, Append(path, "a", []byte("abc")))
		return testutil.ReadFile(t, path)
	}

	tests := []struct {
		name   string
		mutate func(t *testing.T) []byte
		want   error
	}{
		{
			name:   "too short",
			mutate: func(*testing.T) []byte { return []byte("PK") },
			want:   ErrFormat,
		},
		{
			name:   "garbage",
			mutate: func(*testing.T) []byte { return bytes.Repeat([]byte{0xAB}, 100) },
			want:   ErrFormat,
		},
		{
			name: "multi disk",
			mutate: func(t *testing.T) []byte {
				data := valid(t)
				zipfmt.PutUint16At(data, len(data)-zipfmt.EndRecordSize+4, 1)
				return data
			},
			want: ErrUnsupported,
		},
		{
			name: "comment",
			mutate: func(t *testing.T) []byte {
				data := valid(t)
				zipfmt.PutUint16At(data, len(data)-2, 3)
				return data
			},
			want: ErrUnsupported,
		},
		{
			name: "count mismatch",
			mutate: func(t *testing.T) []byte {
				data := valid(t)
				zipfmt.PutUint16At(data, len(data)-zipfmt.EndRecordSize+10, 2)
				return data
			},
			want: ErrFormat,
		},
		{
			name: "index offset",
			mutate: func(t *testing.T) []byte {
				data := valid(t)
				off := len(data) - zipfmt.EndRecordSize + 16
				zipfmt.PutUint32At(data, off, zipfmt.Uint32At(data, off)-1)
				return data
			},
			want: ErrFormat,
		},
		{
			name: "records disagree with count",
			mutate: func(t *testing.T) []byte {
				data := valid(t)
				zipfmt.PutUint16At(data, len(data)-zipfmt.EndRecordSize+8, 2)
				zipfmt.PutUint16At(data, len(data)-zipfmt.EndRecordSize+10, 2)
				return data
			},
			want: ErrFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := archivePath(t)
			original := tt.mutate(t)
			testutil.WriteFile(t, path, original)

			err := Append(path, "b", []byte("new"))
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, original, testutil.ReadFile(t, path), "file untouched on rejection")
		})
	}
}

func TestAppendRejectsBadArguments(t *testing.T) {
	t.Parallel()

	path := archivePath(t)
	err := Append(path, strings.Repeat("n", 65535), []byte("x"))
	require.ErrorIs(t, err, ErrFormat)

	err = Append(path, "a", []byte("x"), AppendWithCompression(Method(12)))
	require.ErrorIs(t, err, ErrUnsupported)

	err = Append(path, "a", []byte("x"), AppendWithCompression(MethodDeflate), AppendWithLevel(42))
	require.ErrorIs(t, err, ErrUnsupported)

	err = Append(path, "a", []byte("x"), AppendWithCompression(MethodZstd), AppendWithLevel(0))
	require.ErrorIs(t, err, ErrUnsupported)

	assert.NoFileExists(t, path, "rejected appends must not create the archive")
}

func TestAppendIntoMissingDirectory(t *testing.T) {
	t.Parallel()

	err := Append(filepath.Join(t.TempDir(), "missing", "arrays.npz"), "a", []byte("x"))
	require.ErrorIs(t, err, ErrIO)
}
