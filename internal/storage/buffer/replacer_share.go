package buffer

import (
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// ReplacerShared provides common state and methods for replacement policies:
// the page-id-to-frame-index map every Replacer keys its page-level lookups
// through, plus a free-frame list so RequestFree never evicts while spare
// capacity remains.
type ReplacerShared struct {
	pageToIdx map[util.PageID]int // Map PageID to frame index
	nextFree  []int               // Free list for allocation
	freeHead  int                 // Head of free list
	poolSize  int                 // Total frames
}

// NewReplacerShared initializes the shared replacer state.
func NewReplacerShared(size int) *ReplacerShared {
	if size <= 0 {
		panic(util.ErrInvalidPoolSize)
	}
	rs := &ReplacerShared{
		pageToIdx: make(map[util.PageID]int, size),
		nextFree:  make([]int, size),
		freeHead:  0,
		poolSize:  size,
	}
	for i := 0; i < size; i++ {
		rs.nextFree[i] = i + 1
	}
	rs.nextFree[size-1] = -1
	return rs
}

// allocFromFree allocates a free frame index.
func (rs *ReplacerShared) allocFromFree() int {
	if rs.freeHead == -1 {
		return -1
	}
	freeIdx := rs.freeHead
	rs.freeHead = rs.nextFree[freeIdx]
	rs.nextFree[freeIdx] = -1
	return freeIdx
}

// returnFrameToFree returns a frame to the free list.
func (rs *ReplacerShared) returnFrameToFree(frameIdx int) {
	rs.nextFree[frameIdx] = rs.freeHead
	rs.freeHead = frameIdx
}

// removePageMapping removes a page from the pageToIdx map.
func (rs *ReplacerShared) removePageMapping(pageId util.PageID) {
	delete(rs.pageToIdx, pageId)
}
