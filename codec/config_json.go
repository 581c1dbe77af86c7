package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"github.com/meigma/npz/internal/endian"
)

const engineModule = "github.com/klauspost/compress"

// Config describes a stream codec. Only Level is persisted when a Config is
// serialized; Name, Version and BigEndian are properties of the build and
// the platform.
type Config struct {
	Name      string `json:"-"`
	Version   string `json:"-"`
	BigEndian bool   `json:"-"`
	Level     int    `json:"level"`
}

// DefaultConfig returns the gzip codec at level 1 in native byte order.
func DefaultConfig() Config {
	return Config{
		Name:      FormatGzip.String(),
		Version:   engineVersion(),
		BigEndian: endian.NativeBigEndian(),
		Level:     DefaultLevel,
	}
}

// Options converts c to call options.
func (c Config) Options() ([]Option, error) {
	f, err := ParseFormat(c.Name)
	if err != nil {
		return nil, err
	}
	return []Option{WithFormat(f), WithLevel(c.Level), WithBigEndian(c.BigEndian)}, nil
}

// WriteTo serializes the persisted fields of c as JSON.
func (c Config) WriteTo(w io.Writer) (int64, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("marshal codec config: %w", err)
	}
	n, err := w.Write(b)
	if err != nil {
		return int64(n), fmt.Errorf("%w: write codec config: %w", ErrIO, err)
	}
	return int64(n), nil
}

// ReadFrom restores the persisted fields of c from JSON, leaving the other
// fields untouched.
func (c *Config) ReadFrom(r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return int64(len(b)), fmt.Errorf("%w: read codec config: %w", ErrIO, err)
	}
	if err := json.Unmarshal(b, c); err != nil {
		return int64(len(b)), fmt.Errorf("%w: codec config: %w", ErrFormat, err)
	}
	return int64(len(b)), nil
}

var engineVersion = sync.OnceValue(func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == engineModule {
			if dep.Replace != nil {
				return dep.Replace.Version
			}
			return dep.Version
		}
	}
	return "unknown"
})
