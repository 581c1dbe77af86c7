// Package codec compresses and decompresses a single stream of fixed-width
// array elements in bounded chunks.
//
// A stream is encoded or decoded in one call. Input is consumed one chunk at
// a time (16 KiB by default) and the engine output is drained through a
// fixed output buffer that always holds a whole number of elements. When the
// element width is greater than one byte and the requested byte order differs
// from the platform order, every element is byte-swapped: on encode a copy of
// each input chunk is swapped before compression, on decode each output chunk
// is swapped in place before it is appended.
//
// Four stream formats are supported, all backed by
// github.com/klauspost/compress:
//
//   - FormatGzip: gzip-wrapped DEFLATE, the default for standalone files
//   - FormatZlib: zlib-wrapped DEFLATE
//   - FormatRaw: bare DEFLATE, as stored inside archive entries
//   - FormatZstd: Zstandard frames
//
// Any engine failure aborts the call and returns no partial output. Errors
// wrap the sentinels ErrFormat (corrupt stream), ErrIO (source or sink
// failure), ErrIntegrity (partial trailing element or output limit) and
// ErrUnsupported (invalid level, format or element size).
//
// Typed helpers encode and decode slices directly:
//
//	var buf bytes.Buffer
//	if err := codec.EncodeSlice(&buf, []float64{1, 2, 3}); err != nil {
//		return err
//	}
//	values, err := codec.DecodeSlice[float64](&buf)
package codec
