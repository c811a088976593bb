package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

func newClock(size, maxLoop int) (*ClockReplacer, *ReplacerShared) {
	shared := NewReplacerShared(size)
	cr := &ClockReplacer{}
	cr.Init(size, maxLoop, shared)
	return cr, shared
}

func TestClockRequestFreeUsesFreeListBeforeSweeping(t *testing.T) {
	cr, _ := newClock(2, 2)

	idx, err := cr.RequestFree()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = cr.RequestFree()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestClockPinBlocksEviction(t *testing.T) {
	cr, _ := newClock(1, 2)

	idx, _ := cr.RequestFree()
	require.NoError(t, cr.PutPage(idx, page.CreateTestPage(util.PageID(1), []byte("x"))))
	require.NoError(t, cr.Pin(idx))

	_, err := cr.Evict()
	assert.ErrorIs(t, err, util.ErrNoFreeFrame)
}

func TestClockUnpinMakesFrameEvictableAgain(t *testing.T) {
	cr, _ := newClock(1, 2)

	idx, _ := cr.RequestFree()
	require.NoError(t, cr.PutPage(idx, page.CreateTestPage(util.PageID(1), []byte("x"))))
	require.NoError(t, cr.Pin(idx))
	require.NoError(t, cr.Unpin(idx, false))

	victim, err := cr.Evict()
	require.NoError(t, err)
	assert.Equal(t, idx, victim)
}

func TestClockUsageCountGivesFrameASecondChance(t *testing.T) {
	cr, _ := newClock(1, 3)

	idx, _ := cr.RequestFree()
	require.NoError(t, cr.PutPage(idx, page.CreateTestPage(util.PageID(1), []byte("x"))))
	require.NoError(t, cr.Pin(idx))
	require.NoError(t, cr.Unpin(idx, false)) // usageCount bumped to 1 by Pin, frame unpinned

	// first sweep pass decays usageCount instead of evicting immediately
	victim, err := cr.Evict()
	require.NoError(t, err)
	assert.Equal(t, idx, victim)
}

func TestClockUnpinDirtySetsDirtyFlag(t *testing.T) {
	cr, _ := newClock(1, 2)

	idx, _ := cr.RequestFree()
	require.NoError(t, cr.PutPage(idx, page.CreateTestPage(util.PageID(1), []byte("x"))))
	require.NoError(t, cr.Pin(idx))
	require.NoError(t, cr.Unpin(idx, true))

	dirty, err := cr.IsDirty(idx)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestClockUnpinWithoutPinErrors(t *testing.T) {
	cr, _ := newClock(1, 2)

	idx, _ := cr.RequestFree()
	require.NoError(t, cr.PutPage(idx, page.CreateTestPage(util.PageID(1), []byte("x"))))

	assert.Error(t, cr.Unpin(idx, false))
}

func TestClockGetPageOnUnallocatedFrameErrors(t *testing.T) {
	cr, _ := newClock(1, 2)
	_, err := cr.GetPage(0)
	assert.ErrorIs(t, err, util.ErrFrameNotAllocated)
}

func TestClockResetFrameByIdxReturnsFrameToFreeList(t *testing.T) {
	cr, _ := newClock(1, 2)

	idx, _ := cr.RequestFree()
	require.NoError(t, cr.PutPage(idx, page.CreateTestPage(util.PageID(1), []byte("x"))))

	require.NoError(t, cr.ResetFrameByIdx(idx))

	again, err := cr.RequestFree()
	require.NoError(t, err)
	assert.Equal(t, idx, again)
}

func TestClockSizeReportsPoolSize(t *testing.T) {
	cr, _ := newClock(3, 2)
	assert.Equal(t, 3, cr.Size())
}

func TestClockResetBufferClearsAllState(t *testing.T) {
	cr, _ := newClock(2, 2)

	idx, _ := cr.RequestFree()
	require.NoError(t, cr.PutPage(idx, page.CreateTestPage(util.PageID(1), []byte("x"))))

	cr.ResetBuffer()

	_, err := cr.GetPage(idx)
	assert.ErrorIs(t, err, util.ErrFrameNotAllocated)

	again, err := cr.RequestFree()
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}
