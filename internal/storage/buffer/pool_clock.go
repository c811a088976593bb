package buffer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// ClockDesc holds the per-frame state tracked by ClockReplacer.
type ClockDesc struct {
	page       atomic.Pointer[page.Page]
	usageCount int32
	refCount   int32
	dirty      atomic.Bool
}

// ClockReplacer approximates LRU by sweeping a clock hand over the frame
// array and decaying usage counts instead of maintaining an ordered list.
type ClockReplacer struct {
	frames []*ClockDesc
	*ReplacerShared
	nextVictimIdx int32
	maxLoop       int

	mu sync.Mutex
}

func (cr *ClockReplacer) Init(size int, maxLoop int, replacerShared *ReplacerShared) {
	if size <= 0 {
		panic(util.ErrInvalidPoolSize)
	}

	cr.frames = make([]*ClockDesc, size)
	cr.ReplacerShared = replacerShared
	cr.nextVictimIdx = -1
	cr.maxLoop = maxLoop

	for i := 0; i < size; i++ {
		cr.frames[i] = &ClockDesc{}
	}
}

// RequestFree returns a free frame if one exists, otherwise sweeps the clock
// hand looking for an unpinned victim to evict.
func (cr *ClockReplacer) RequestFree() (int, error) {
	if freeIdx := cr.allocFromFree(); freeIdx != -1 {
		return freeIdx, nil
	}

	return cr.Evict()
}

// Evict sweeps the clock hand for an unpinned victim frame, decaying usage
// counts of frames it passes over, and removes the victim's page mapping.
func (cr *ClockReplacer) Evict() (int, error) {
	poolSize := int32(cr.poolSize)
	maxLoop := cr.maxLoop
	if maxLoop <= 0 {
		maxLoop = 1
	}

	for i := int32(0); i < poolSize*int32(maxLoop); i++ {
		victimIdx := atomic.AddInt32(&cr.nextVictimIdx, 1) % poolSize
		desc := cr.frames[victimIdx]

		if atomic.LoadInt32(&desc.refCount) > 0 {
			continue
		}

		if usage := atomic.LoadInt32(&desc.usageCount); usage > 0 {
			atomic.AddInt32(&desc.usageCount, -1)
			continue
		}

		if p := desc.page.Load(); p != nil {
			cr.removePageMapping(p.Header.PageID)
		}
		return int(victimIdx), nil
	}

	return -1, util.ErrNoFreeFrame
}

// Pin marks a frame as referenced and bumps its usage count for the clock
// sweep, matching LRUReplacer.Pin's frame-index-keyed contract.
func (cr *ClockReplacer) Pin(frameIdx int) error {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	node := cr.frames[frameIdx]
	if node.page.Load() == nil {
		return util.ErrFrameNotAllocated
	}

	newVal := atomic.AddInt32(&node.refCount, 1)
	if newVal == 1 {
		node.page.Load().Header.SetPinnedFlag()
	}

	if current := atomic.LoadInt32(&node.usageCount); current < int32(max(cr.maxLoop, 1)) {
		atomic.AddInt32(&node.usageCount, 1)
	}
	return nil
}

func (cr *ClockReplacer) Unpin(frameIdx int, isDirty bool) error {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	node := cr.frames[frameIdx]
	p := node.page.Load()
	if p == nil {
		return util.ErrFrameNotAllocated
	}

	if isDirty {
		node.dirty.Store(true)
		p.Header.SetDirtyFlag()
	}

	newCount := atomic.AddInt32(&node.refCount, -1)
	if newCount < 0 {
		atomic.AddInt32(&node.refCount, 1)
		return fmt.Errorf("frame %d was not pinned (refCount was %d)", frameIdx, newCount+1)
	}

	if newCount == 0 {
		_ = p.Header.ClearPinnedFlag()
	}

	return nil
}

func (cr *ClockReplacer) GetPinCount(frameIdx int) (int32, error) {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return 0, util.ErrOutBoundOfFrame
	}

	return atomic.LoadInt32(&cr.frames[frameIdx].refCount), nil
}

func (cr *ClockReplacer) GetPage(frameIdx int) (*page.Page, error) {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return nil, util.ErrOutBoundOfFrame
	}

	node := cr.frames[frameIdx]
	p := node.page.Load()
	if p == nil {
		return nil, util.ErrFrameNotAllocated
	}

	return p, nil
}

func (cr *ClockReplacer) PutPage(frameIdx int, p *page.Page) error {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	desc := cr.frames[frameIdx]
	desc.page.Store(p)
	atomic.StoreInt32(&desc.refCount, 0)
	atomic.StoreInt32(&desc.usageCount, 0)
	desc.dirty.Store(false)

	return nil
}

func (cr *ClockReplacer) Dirty(frameIdx int) error {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	node := cr.frames[frameIdx]
	p := node.page.Load()
	if p == nil {
		return util.ErrFrameNotAllocated
	}

	node.dirty.Store(true)
	p.Header.SetDirtyFlag()
	return nil
}

func (cr *ClockReplacer) IsDirty(frameIdx int) (bool, error) {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return false, util.ErrOutBoundOfFrame
	}

	node := cr.frames[frameIdx]
	if node.page.Load() == nil {
		return false, util.ErrFrameNotAllocated
	}

	return node.dirty.Load(), nil
}

// ResetFrameByIdx drops a frame's contents and returns it to the free list.
func (cr *ClockReplacer) ResetFrameByIdx(frameIdx int) error {
	if frameIdx >= cr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	node := cr.frames[frameIdx]
	node.page.Store(nil)
	atomic.StoreInt32(&node.refCount, 0)
	atomic.StoreInt32(&node.usageCount, 0)
	node.dirty.Store(false)

	cr.returnFrameToFree(frameIdx)
	return nil
}

func (cr *ClockReplacer) Size() int {
	return cr.poolSize
}

func (cr *ClockReplacer) ResetBuffer() {
	for i := 0; i < cr.poolSize; i++ {
		cr.frames[i] = &ClockDesc{}
	}
	cr.pageToIdx = make(map[util.PageID]int)
	cr.freeHead = 0
	for i := 0; i < cr.poolSize; i++ {
		cr.nextFree[i] = i + 1
	}
	cr.nextFree[cr.poolSize-1] = -1
	cr.nextVictimIdx = -1
}
