package buffer

import (
	"fmt"
	"sync/atomic"

	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// LRUDesc holds the per-frame state tracked by LRUReplacer.
type LRUDesc struct {
	page      *page.Page
	nextIdx   int
	prevIdx   int
	pinCounts int32
	dirty     bool
}

// LRUReplacer evicts the least recently used unpinned frame.
type LRUReplacer struct {
	frames []*LRUDesc // Holds page.Page (4KB)
	*ReplacerShared
	lruHead  int   // Head of LRU (evict first)
	lruTail  int   // Tail of LRU (most recent)
	nextFree []int // Free list for allocation
	freeHead int   // Head of free list
}

func (lr *LRUReplacer) Init(size int, replacerShared *ReplacerShared) {
	if size <= 0 {
		panic(util.ErrInvalidPoolSize)
	}

	lr.frames = make([]*LRUDesc, size)
	lr.ReplacerShared = replacerShared
	lr.lruHead = -1
	lr.lruTail = -1
	lr.nextFree = make([]int, size)

	lr.freeHead = 0
	for i := 0; i < size; i++ {
		lr.nextFree[i] = i + 1
	}
	lr.nextFree[size-1] = -1
}

func (lr *LRUReplacer) RequestFree() (int, error) {
	freeIdx := lr.allocFromFree()
	if freeIdx == -1 {
		rmIdx, err := lr.Evict()
		if err != nil {
			return -1, err
		}
		freeIdx = rmIdx
	}

	return freeIdx, nil
}

// Pin marks a frame as pinned (cannot be evicted)
func (lr *LRUReplacer) Pin(frameIdx int) error {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	node := lr.frames[frameIdx]
	if node == nil {
		return fmt.Errorf("frame %d is not allocated", frameIdx)
	}

	// An access moves the frame to the most recent end of the LRU list.
	if lr.lruTail != frameIdx {
		if err := lr.removeLRUByIndex(frameIdx); err != nil {
			return err
		}
		node.prevIdx = lr.lruTail
		if lr.lruTail != -1 {
			lr.frames[lr.lruTail].nextIdx = frameIdx
		} else {
			lr.lruHead = frameIdx
		}
		lr.lruTail = frameIdx
	}

	newCount := atomic.AddInt32(&node.pinCounts, 1)
	if newCount == 1 && !node.page.Header.IsPinned() {
		node.page.Header.SetPinnedFlag()
	}
	return nil
}

// Unpin marks a frame as unpinned (can be evicted) and optionally dirty
func (lr *LRUReplacer) Unpin(frameIdx int, isDirty bool) error {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	node := lr.frames[frameIdx]
	if node == nil {
		return fmt.Errorf("frame %d is not allocated", frameIdx)
	}
	if node.pinCounts <= 0 {
		return fmt.Errorf("frame %d is not pinned", frameIdx)
	}
	node.pinCounts--
	if node.pinCounts == 0 {
		_ = node.page.Header.ClearPinnedFlag()
	}
	if isDirty {
		node.dirty = true
		node.page.Header.SetDirtyFlag()
	}
	return nil
}

func (lr *LRUReplacer) GetPage(frameIdx int) (*page.Page, error) {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return nil, util.ErrOutBoundOfFrame
	}
	node := lr.frames[frameIdx]
	if node == nil {
		return nil, util.ErrFrameNotAllocated
	}

	return node.page, nil
}

func (lr *LRUReplacer) PutPage(frameIdx int, p *page.Page) error {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	return lr.addToTail(frameIdx, p)
}

func (lr *LRUReplacer) GetPinCount(frameIdx int) (int32, error) {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return -1, util.ErrOutBoundOfFrame
	}
	node := lr.frames[frameIdx]
	if node == nil {
		return 0, nil
	}

	return node.pinCounts, nil
}

func (lr *LRUReplacer) Dirty(frameIdx int) error {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	node := lr.frames[frameIdx]
	if node == nil {
		return util.ErrFrameNotAllocated
	}

	node.dirty = true
	if !node.page.Header.IsDirty() {
		node.page.Header.SetDirtyFlag()
	}

	return nil
}

func (lr *LRUReplacer) IsDirty(frameIdx int) (bool, error) {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return false, util.ErrOutBoundOfFrame
	}
	node := lr.frames[frameIdx]
	if node == nil {
		return false, util.ErrFrameNotAllocated
	}

	return node.dirty, nil
}

// ResetFrameByIdx drops a frame's contents and returns it to the free list,
// used once its page has been flushed (if dirty) by the caller.
func (lr *LRUReplacer) ResetFrameByIdx(frameIdx int) error {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}

	lr.frames[frameIdx] = nil
	lr.returnFrameToFree(frameIdx)
	return nil
}

func (lr *LRUReplacer) Size() int {
	return lr.poolSize
}

func (lr *LRUReplacer) ResetBuffer() {
	// Clear all frames
	for i := 0; i < lr.Size(); i++ {
		lr.frames[i] = nil
	}

	// Clear page mappings
	lr.pageToIdx = make(map[util.PageID]int)
	// Reset free list
	lr.freeHead = 0
	for i := 0; i < lr.poolSize; i++ {
		lr.nextFree[i] = i + 1
	}
	lr.nextFree[lr.poolSize-1] = -1
	// Reset LRU state
	lr.lruHead = -1
	lr.lruTail = -1
}

func (lr *LRUReplacer) addToTail(frameIdx int, p *page.Page) error {
	tmp := lr.lruTail
	lr.lruTail = frameIdx
	node := &LRUDesc{
		page:      p,
		prevIdx:   tmp,
		nextIdx:   -1,
		pinCounts: 0,
		dirty:     false,
	}
	if tmp != -1 {
		prevNode := lr.frames[tmp]
		if prevNode == nil {
			return util.ErrPageNotFound
		}
		prevNode.nextIdx = frameIdx
	}
	if lr.lruHead == -1 {
		lr.lruHead = frameIdx
	}
	lr.frames[frameIdx] = node

	return nil
}

func (lr *LRUReplacer) removeLRUByIndex(frameIdx int) error {
	if frameIdx >= lr.poolSize || frameIdx < 0 {
		return util.ErrOutBoundOfFrame
	}
	node := lr.frames[frameIdx]
	if lr.lruHead == -1 || node == nil || (node.nextIdx == -1 && node.prevIdx == -1 && lr.lruHead != frameIdx) {
		return fmt.Errorf("invalid LRU state for frame %d", frameIdx)
	}
	prev := node.prevIdx
	next := node.nextIdx
	isHead := prev == -1
	isTail := next == -1

	switch {
	case isHead && isTail:
		// Only one node in the list
		lr.lruHead = -1
		lr.lruTail = -1
	case isHead && !isTail:
		// Removing head, next becomes new head
		lr.lruHead = next
		lr.frames[next].prevIdx = -1
	case !isHead && isTail:
		// Removing tail, prev becomes new tail
		lr.lruTail = prev
		lr.frames[prev].nextIdx = -1
	case !isHead && !isTail:
		// Removing middle node, connect prev and next
		lr.frames[prev].nextIdx = next
		lr.frames[next].prevIdx = prev
	}

	// Clear the removed node's links
	node.nextIdx = -1
	node.prevIdx = -1
	return nil
}

// allocFromFree allocates a free frame index.
func (lr *LRUReplacer) allocFromFree() int {
	if lr.freeHead == -1 {
		return -1
	}
	freeIdx := lr.freeHead
	lr.freeHead = lr.nextFree[freeIdx]
	lr.nextFree[freeIdx] = -1
	return freeIdx
}

// returnFrameToFree returns a frame to the free list.
func (lr *LRUReplacer) returnFrameToFree(frameIdx int) {
	lr.nextFree[frameIdx] = lr.freeHead
	lr.freeHead = frameIdx
}

func (lr *LRUReplacer) Evict() (int, error) {
	current := lr.lruHead
	for current != -1 {
		node := lr.frames[current]
		if atomic.LoadInt32(&node.pinCounts) == 0 {
			if err := lr.removeLRUByIndex(current); err != nil {
				return -1, err
			}
			lr.removePageMapping(node.page.Header.PageID)
			return current, nil
		}
		current = node.nextIdx
	}
	return -1, util.ErrNoFreeFrame
}
