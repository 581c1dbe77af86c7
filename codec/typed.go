package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Element is a fixed-size numeric type that can be stored in a stream.
type Element interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

func elementSize[T Element]() int {
	var zero T
	return binary.Size(zero)
}

// EncodeSlice compresses values to dst. The element width is implied by T
// and overrides any WithElementSize option.
func EncodeSlice[T Element](dst io.Writer, values []T, opts ...Option) error {
	raw, err := binary.Append(make([]byte, 0, len(values)*elementSize[T]()), binary.NativeEndian, values)
	if err != nil {
		return fmt.Errorf("%w: encode elements: %w", ErrUnsupported, err)
	}
	return Compress(dst, raw, append(opts, WithElementSize(elementSize[T]()))...)
}

// DecodeSlice decompresses one stream from src into a slice of T.
func DecodeSlice[T Element](src io.Reader, opts ...Option) ([]T, error) {
	width := elementSize[T]()
	raw, err := Decompress(src, append(opts, WithElementSize(width))...)
	if err != nil {
		return nil, err
	}
	values := make([]T, len(raw)/width)
	if _, err := binary.Decode(raw, binary.NativeEndian, values); err != nil {
		return nil, fmt.Errorf("%w: decode elements: %w", ErrIntegrity, err)
	}
	return values, nil
}
