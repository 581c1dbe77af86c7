//go:build unix

package npz

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	t.Parallel()

	for _, atomic := range []bool{false, true} {
		t.Run(fmt.Sprintf("atomic=%v", atomic), func(t *testing.T) {
			t.Parallel()

			path := archivePath(t)
			const writers = 8
			var wg sync.WaitGroup
			errs := make([]error, writers)
			for i := range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[i] = Append(path, fmt.Sprintf("w%d", i), []byte(fmt.Sprintf("payload-%d", i)),
						AppendWithAtomicReplace(atomic))
				}()
			}
			wg.Wait()
			for _, err := range errs {
				require.NoError(t, err)
			}

			arrays, err := LoadFile(path)
			require.NoError(t, err)
			require.Len(t, arrays, writers)
			for i := range writers {
				assert.Equal(t, []byte(fmt.Sprintf("payload-%d", i)), arrays[fmt.Sprintf("w%d", i)])
			}
		})
	}
}
