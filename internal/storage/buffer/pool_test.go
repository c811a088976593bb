package buffer

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bearlee001/cmu-buffer-pool/internal/storage/file"
	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// createTempFile hands buildPool a scratch path for a fresh FileManager,
// mirroring the local temp file helper in the file package's file_test.go
// rather than sharing one from a production package.
func createTempFile(t *testing.T) (string, func()) {
	t.Helper()
	tempDir := t.TempDir()
	tempFile := filepath.Join(tempDir, fmt.Sprintf("arraydb-test-%d.dat", rand.Intn(100)+10))
	return tempFile, func() {
		os.Remove(tempFile)
	}
}

// buildPool seeds numPages worth of pages to a fresh temp-file-backed
// FileManager and wires up a BufferPool of the given policy over poolSize
// frames. Deliberately exercises all three Replacer implementations through
// the same BufferPool surface.
func buildPool(t *testing.T, policy string, poolSize, numPages int) (*BufferPool, func()) {
	t.Helper()

	path, cleanup := createTempFile(t)
	fm, err := file.NewFileManager(path, numPages)
	require.NoError(t, err)

	for i := 0; i < numPages; i++ {
		p := page.CreateTestPage(util.PageID(i), []byte(fmt.Sprintf("page-%d", i)))
		require.NoError(t, fm.WritePage(p))
	}

	shared := NewReplacerShared(poolSize)
	var replacer Replacer
	switch policy {
	case "lru":
		r := &LRUReplacer{}
		r.Init(poolSize, shared)
		replacer = r
	case "clock":
		r := &ClockReplacer{}
		r.Init(poolSize, 2, shared)
		replacer = r
	case "arc":
		r := &ArcFrameReplacer{}
		r.Init(poolSize, shared)
		replacer = r
	default:
		t.Fatalf("unknown policy %q", policy)
	}

	pool := NewBufferPool(poolSize, fm, replacer, shared)
	return pool, func() {
		fm.Close()
		cleanup()
	}
}

func forEachPolicy(t *testing.T, run func(t *testing.T, policy string)) {
	for _, policy := range []string{"lru", "clock", "arc"} {
		t.Run(policy, func(t *testing.T) {
			run(t, policy)
		})
	}
}

func TestBufferPoolAllocateFrameReadsFromDisk(t *testing.T) {
	forEachPolicy(t, func(t *testing.T, policy string) {
		pool, done := buildPool(t, policy, 4, 4)
		defer done()

		p, err := pool.AllocateFrame(util.PageID(0))
		require.NoError(t, err)
		assert.Equal(t, util.PageID(0), p.Header.PageID)
	})
}

func TestBufferPoolAllocateFrameCacheHitDoesNotRereadDisk(t *testing.T) {
	forEachPolicy(t, func(t *testing.T, policy string) {
		pool, done := buildPool(t, policy, 4, 4)
		defer done()

		first, err := pool.AllocateFrame(util.PageID(1))
		require.NoError(t, err)
		require.NoError(t, pool.UnpinFrame(util.PageID(1), false))

		second, err := pool.AllocateFrame(util.PageID(1))
		require.NoError(t, err)
		assert.Equal(t, first.Header.PageID, second.Header.PageID)
		assert.Same(t, first, second)
	})
}

func TestBufferPoolEvictsWhenFullThenServesNewPage(t *testing.T) {
	forEachPolicy(t, func(t *testing.T, policy string) {
		pool, done := buildPool(t, policy, 2, 4)
		defer done()

		for i := 0; i < 2; i++ {
			_, err := pool.AllocateFrame(util.PageID(i))
			require.NoError(t, err)
			require.NoError(t, pool.UnpinFrame(util.PageID(i), false))
		}

		// pool is full of unpinned pages; a third distinct page must evict one
		p, err := pool.AllocateFrame(util.PageID(2))
		require.NoError(t, err)
		assert.Equal(t, util.PageID(2), p.Header.PageID)
	})
}

func TestBufferPoolFlushesDirtyVictimBeforeReuse(t *testing.T) {
	forEachPolicy(t, func(t *testing.T, policy string) {
		pool, done := buildPool(t, policy, 1, 4)
		defer done()

		p, err := pool.AllocateFrame(util.PageID(0))
		require.NoError(t, err)
		copy(p.Data[:], []byte("dirty-bytes"))
		require.NoError(t, pool.UnpinFrame(util.PageID(0), true)) // dirty

		// forces eviction of page 0's frame; its dirty bytes must reach disk
		_, err = pool.AllocateFrame(util.PageID(1))
		require.NoError(t, err)

		reread, err := pool.fm.ReadPage(util.PageID(0))
		require.NoError(t, err)
		assert.Equal(t, p.Data, reread.Data)
	})
}

func TestBufferPoolPinUnpinOnUnknownPageErrors(t *testing.T) {
	forEachPolicy(t, func(t *testing.T, policy string) {
		pool, done := buildPool(t, policy, 2, 2)
		defer done()

		assert.ErrorIs(t, pool.PinFrame(util.PageID(99)), util.ErrPageNotFound)
		assert.ErrorIs(t, pool.UnpinFrame(util.PageID(99), false), util.ErrPageNotFound)
		assert.ErrorIs(t, pool.MarkDirty(util.PageID(99)), util.ErrPageNotFound)
	})
}

func TestBufferPoolMarkDirtyThenFlushPageWritesToDisk(t *testing.T) {
	forEachPolicy(t, func(t *testing.T, policy string) {
		pool, done := buildPool(t, policy, 2, 2)
		defer done()

		p, err := pool.AllocateFrame(util.PageID(0))
		require.NoError(t, err)
		copy(p.Data[:], []byte("mutated"))

		require.NoError(t, pool.MarkDirty(util.PageID(0)))
		require.NoError(t, pool.FlushPage(util.PageID(0)))

		reread, err := pool.fm.ReadPage(util.PageID(0))
		require.NoError(t, err)
		assert.Equal(t, p.Data, reread.Data)
	})
}

func TestBufferPoolSizeReportsConfiguredCapacity(t *testing.T) {
	pool, done := buildPool(t, "lru", 7, 7)
	defer done()
	assert.Equal(t, 7, pool.Size())
}

func TestBufferPoolWithMetricsRecordsHitsAndMisses(t *testing.T) {
	pool, done := buildPool(t, "lru", 2, 3)
	defer done()

	var hits, misses, evictions int
	rec := &countingRecorder{hits: &hits, misses: &misses, evictions: &evictions}
	pool.WithMetrics(rec, "lru")

	_, err := pool.AllocateFrame(util.PageID(0)) // miss
	require.NoError(t, err)
	require.NoError(t, pool.UnpinFrame(util.PageID(0), false))

	_, err = pool.AllocateFrame(util.PageID(0)) // hit
	require.NoError(t, err)

	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, hits)
}

type countingRecorder struct {
	hits, misses, evictions *int
}

func (c *countingRecorder) Hit(string)      { *c.hits++ }
func (c *countingRecorder) Miss(string)     { *c.misses++ }
func (c *countingRecorder) Eviction(string) { *c.evictions++ }
