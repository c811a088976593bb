package buffer

import (
	"container/list"
	"fmt"

	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// arcFrameStatus is the bookkeeping kept for a frame currently resident in
// T1 or T2: which page it holds, and whether it is a candidate for Evict.
type arcFrameStatus struct {
	pageID    util.PageID
	evictable bool
}

// ArcReplacer is an Adaptive Replacement Cache policy over a fixed number of
// frame slots. It tracks no page bytes itself: RecordAccess/SetEvictable/
// Evict/Remove/Size operate purely on frame ids and an adaptive split
// between "recency" (T1/B1) and "frequency" (T2/B2) history.
//
// T1/T2 hold the frame ids currently resident; B1/B2 hold the page ids of
// frames recently evicted from T1/T2 respectively ("ghosts" - no frame is
// attached to them). Callers must serialize access; ArcReplacer does no
// locking of its own.
type ArcReplacer struct {
	capacity   int
	targetSize int // p: adaptive target length for T1

	t1, t2 *list.List // of frame id (int), MRU at front
	b1, b2 *list.List // of page id (util.PageID), MRU at front

	t1Elems map[int]*list.Element
	t2Elems map[int]*list.Element
	b1Elems map[util.PageID]*list.Element
	b2Elems map[util.PageID]*list.Element

	alive map[int]*arcFrameStatus // frame id -> status, only for T1/T2 members

	curSize int // number of evictable frames
}

// NewArcReplacer builds an ArcReplacer over the given number of frame slots.
func NewArcReplacer(capacity int) *ArcReplacer {
	if capacity <= 0 {
		panic(util.ErrInvalidPoolSize)
	}

	return &ArcReplacer{
		capacity: capacity,
		t1:       list.New(),
		t2:       list.New(),
		b1:       list.New(),
		b2:       list.New(),
		t1Elems:  make(map[int]*list.Element),
		t2Elems:  make(map[int]*list.Element),
		b1Elems:  make(map[util.PageID]*list.Element),
		b2Elems:  make(map[util.PageID]*list.Element),
		alive:    make(map[int]*arcFrameStatus),
	}
}

// Size returns the number of evictable frames currently tracked.
func (a *ArcReplacer) Size() int {
	return a.curSize
}

// RecordAccess registers an access to frameId, which the caller has just
// mapped to pageId. Brand new frames are inserted at the front of T1; a hit
// on a resident frame or a ghost promotes it to the front of T2. Ghost hits
// additionally adapt the T1/T2 target split (p) per the ARC algorithm.
func (a *ArcReplacer) RecordAccess(frameID int, pageID util.PageID) {
	if status, ok := a.alive[frameID]; ok && status.pageID == pageID {
		a.moveResidentToT2Front(frameID)
		return
	}

	if elem, ok := a.b1Elems[pageID]; ok {
		if a.b1.Len() >= a.b2.Len() {
			a.targetSize++
		} else {
			a.targetSize += a.b2.Len() / max(a.b1.Len(), 1)
		}
		if a.targetSize > a.capacity {
			a.targetSize = a.capacity
		}
		a.moveGhostToT2Front(frameID, pageID, a.b1, a.b1Elems, elem)
		return
	}

	if elem, ok := a.b2Elems[pageID]; ok {
		if a.b2.Len() >= a.b1.Len() {
			a.targetSize--
		} else {
			a.targetSize -= a.b1.Len() / max(a.b2.Len(), 1)
		}
		if a.targetSize < 0 {
			a.targetSize = 0
		}
		a.moveGhostToT2Front(frameID, pageID, a.b2, a.b2Elems, elem)
		return
	}

	// Miss: neither resident nor ghost. Trim ghost lists to keep the ARC
	// invariants |T1|+|B1| <= C and |T1|+|B1|+|T2|+|B2| <= 2C, then insert
	// the new frame at the front of T1.
	switch {
	case a.t1.Len()+a.b1.Len() == a.capacity:
		a.trimGhostTail(a.b1, a.b1Elems)
	case a.t1.Len()+a.b1.Len() < a.capacity:
		if a.t1.Len()+a.b1.Len()+a.t2.Len()+a.b2.Len() == 2*a.capacity {
			a.trimGhostTail(a.b2, a.b2Elems)
		}
	default:
		panic(fmt.Sprintf("arc: |T1|+|B1| exceeded capacity %d", a.capacity))
	}

	a.t1Elems[frameID] = a.t1.PushFront(frameID)
	a.alive[frameID] = &arcFrameStatus{pageID: pageID, evictable: true}
	a.curSize++
	trace("arc: miss, inserted frame=%d page=%d into T1 (p=%d)", frameID, pageID, a.targetSize)
}

// SetEvictable toggles whether a resident frame participates in eviction.
func (a *ArcReplacer) SetEvictable(frameID int, evictable bool) {
	status, ok := a.alive[frameID]
	if !ok {
		panic(fmt.Sprintf("arc: SetEvictable on unknown frame %d", frameID))
	}
	if !status.evictable && evictable {
		a.curSize++
	} else if status.evictable && !evictable {
		a.curSize--
	}
	status.evictable = evictable
}

// Remove drops an evictable resident frame from T1/T2 without sending it to
// a ghost list. It panics if the frame is non-evictable, and is a no-op if
// the frame is not currently tracked.
func (a *ArcReplacer) Remove(frameID int) {
	status, ok := a.alive[frameID]
	if !ok {
		return
	}
	if !status.evictable {
		panic(fmt.Sprintf("arc: Remove on non-evictable frame %d", frameID))
	}

	delete(a.alive, frameID)
	a.curSize--

	if elem, ok := a.t1Elems[frameID]; ok {
		a.t1.Remove(elem)
		delete(a.t1Elems, frameID)
		return
	}
	if elem, ok := a.t2Elems[frameID]; ok {
		a.t2.Remove(elem)
		delete(a.t2Elems, frameID)
	}
}

// Evict picks a victim frame according to the adaptive T1/T2 balance,
// demotes it into the matching ghost list, and returns its frame id. It
// returns ok=false if no evictable frame exists anywhere.
func (a *ArcReplacer) Evict() (frameID int, ok bool) {
	preferT2 := a.t1.Len() < a.targetSize

	if preferT2 {
		if frameID, ok = a.tryEvictFrom(a.t2, a.t2Elems, a.b2, a.b2Elems); !ok {
			frameID, ok = a.tryEvictFrom(a.t1, a.t1Elems, a.b1, a.b1Elems)
		}
	} else {
		if frameID, ok = a.tryEvictFrom(a.t1, a.t1Elems, a.b1, a.b1Elems); !ok {
			frameID, ok = a.tryEvictFrom(a.t2, a.t2Elems, a.b2, a.b2Elems)
		}
	}

	if !ok {
		return -1, false
	}
	a.curSize--
	trace("arc: evicted frame=%d (p=%d, |T1|=%d, |T2|=%d)", frameID, a.targetSize, a.t1.Len(), a.t2.Len())
	return frameID, true
}

func (a *ArcReplacer) moveResidentToT2Front(frameID int) {
	if elem, ok := a.t1Elems[frameID]; ok {
		a.t1.Remove(elem)
		delete(a.t1Elems, frameID)
	} else if elem, ok := a.t2Elems[frameID]; ok {
		a.t2.Remove(elem)
		delete(a.t2Elems, frameID)
	} else {
		panic(fmt.Sprintf("arc: frame %d marked alive but absent from T1/T2", frameID))
	}
	a.t2Elems[frameID] = a.t2.PushFront(frameID)
}

func (a *ArcReplacer) moveGhostToT2Front(frameID int, pageID util.PageID, ghost *list.List, ghostElems map[util.PageID]*list.Element, elem *list.Element) {
	ghost.Remove(elem)
	delete(ghostElems, pageID)

	a.t2Elems[frameID] = a.t2.PushFront(frameID)
	a.alive[frameID] = &arcFrameStatus{pageID: pageID, evictable: true}
	a.curSize++
}

func (a *ArcReplacer) trimGhostTail(ghost *list.List, ghostElems map[util.PageID]*list.Element) {
	back := ghost.Back()
	if back == nil {
		return
	}
	pageID := back.Value.(util.PageID)
	ghost.Remove(back)
	delete(ghostElems, pageID)
}

func (a *ArcReplacer) tryEvictFrom(resident *list.List, residentElems map[int]*list.Element, ghost *list.List, ghostElems map[util.PageID]*list.Element) (int, bool) {
	for e := resident.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(int)
		status := a.alive[frameID]
		if !status.evictable {
			continue
		}

		resident.Remove(e)
		delete(residentElems, frameID)
		delete(a.alive, frameID)

		ghostElems[status.pageID] = ghost.PushFront(status.pageID)
		return frameID, true
	}
	return -1, false
}
