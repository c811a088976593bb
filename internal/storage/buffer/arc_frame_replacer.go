package buffer

import (
	"fmt"

	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// arcFrameDesc is the page storage a frame holds; ArcReplacer itself only
// knows about frame/page ids, never bytes.
type arcFrameDesc struct {
	page     *page.Page
	pinCount int32
	dirty    bool
}

// ArcFrameReplacer adapts the pure ArcReplacer policy to the Replacer
// interface expected by BufferPool, the same role LRUReplacer and
// ClockReplacer play for their own policies: it pairs ArcReplacer's
// T1/T2/B1/B2 bookkeeping with a frame array holding the actual pages.
type ArcFrameReplacer struct {
	arc    *ArcReplacer
	frames []*arcFrameDesc
	*ReplacerShared
}

func (ar *ArcFrameReplacer) Init(size int, replacerShared *ReplacerShared) {
	if size <= 0 {
		panic(util.ErrInvalidPoolSize)
	}

	ar.arc = NewArcReplacer(size)
	ar.frames = make([]*arcFrameDesc, size)
	ar.ReplacerShared = replacerShared
}

func (ar *ArcFrameReplacer) RequestFree() (int, error) {
	if freeIdx := ar.allocFromFree(); freeIdx != -1 {
		return freeIdx, nil
	}

	frameID, ok := ar.arc.Evict()
	if !ok {
		return -1, util.ErrNoFreeFrame
	}

	if desc := ar.frames[frameID]; desc != nil {
		ar.removePageMapping(desc.page.Header.PageID)
	}
	return frameID, nil
}

// Pin records an access to the frame (promoting it within T1/T2, or
// installing it into T1 the first time) and marks it non-evictable while
// pinned, mirroring how the real buffer pool manager drives an LRU-K/ARC
// style replacer.
func (ar *ArcFrameReplacer) Pin(frameIdx int) error {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	desc := ar.frames[frameIdx]
	if desc == nil {
		return util.ErrFrameNotAllocated
	}

	desc.pinCount++
	if desc.pinCount == 1 {
		desc.page.Header.SetPinnedFlag()
	}

	ar.arc.RecordAccess(frameIdx, desc.page.Header.PageID)
	ar.arc.SetEvictable(frameIdx, false)
	return nil
}

func (ar *ArcFrameReplacer) Unpin(frameIdx int, isDirty bool) error {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	desc := ar.frames[frameIdx]
	if desc == nil {
		return util.ErrFrameNotAllocated
	}
	if desc.pinCount <= 0 {
		return fmt.Errorf("frame %d is not pinned", frameIdx)
	}

	if isDirty {
		desc.dirty = true
		desc.page.Header.SetDirtyFlag()
	}

	desc.pinCount--
	if desc.pinCount == 0 {
		_ = desc.page.Header.ClearPinnedFlag()
		ar.arc.SetEvictable(frameIdx, true)
	}
	return nil
}

func (ar *ArcFrameReplacer) GetPinCount(frameIdx int) (int32, error) {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return -1, util.ErrOutBoundOfFrame
	}
	desc := ar.frames[frameIdx]
	if desc == nil {
		return 0, nil
	}
	return desc.pinCount, nil
}

func (ar *ArcFrameReplacer) Dirty(frameIdx int) error {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	desc := ar.frames[frameIdx]
	if desc == nil {
		return util.ErrFrameNotAllocated
	}
	desc.dirty = true
	desc.page.Header.SetDirtyFlag()
	return nil
}

func (ar *ArcFrameReplacer) IsDirty(frameIdx int) (bool, error) {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return false, util.ErrOutBoundOfFrame
	}
	desc := ar.frames[frameIdx]
	if desc == nil {
		return false, util.ErrFrameNotAllocated
	}
	return desc.dirty, nil
}

func (ar *ArcFrameReplacer) GetPage(frameIdx int) (*page.Page, error) {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return nil, util.ErrOutBoundOfFrame
	}
	desc := ar.frames[frameIdx]
	if desc == nil {
		return nil, util.ErrFrameNotAllocated
	}
	return desc.page, nil
}

// PutPage installs a page's bytes into a frame slot obtained from
// RequestFree. It does not itself touch ARC's T1/T2 bookkeeping - the
// first Pin() call that follows is what records the access.
func (ar *ArcFrameReplacer) PutPage(frameIdx int, p *page.Page) error {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	ar.frames[frameIdx] = &arcFrameDesc{page: p}
	return nil
}

func (ar *ArcFrameReplacer) ResetFrameByIdx(frameIdx int) error {
	if frameIdx >= ar.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	ar.frames[frameIdx] = nil
	ar.arc.Remove(frameIdx)
	ar.returnFrameToFree(frameIdx)
	return nil
}

func (ar *ArcFrameReplacer) Size() int {
	return ar.poolSize
}

func (ar *ArcFrameReplacer) ResetBuffer() {
	for i := range ar.frames {
		ar.frames[i] = nil
	}
	ar.pageToIdx = make(map[util.PageID]int)
	ar.freeHead = 0
	for i := 0; i < ar.poolSize; i++ {
		ar.nextFree[i] = i + 1
	}
	ar.nextFree[ar.poolSize-1] = -1
	ar.arc = NewArcReplacer(ar.poolSize)
}
