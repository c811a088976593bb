package buffer

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/bearlee001/cmu-buffer-pool/internal/storage/file"
	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

// Recorder is satisfied by internal/metrics.Recorder; kept as a small local
// interface so this package does not have to import metrics.
type Recorder interface {
	Hit(policy string)
	Miss(policy string)
	Eviction(policy string)
}

// BufferPool is the disk-backed page cache: it owns the on-disk FileManager
// and delegates page replacement to whichever Replacer policy (LRU, Clock,
// ARC) it was built with. Its public surface, unlike Replacer, is keyed by
// page id - frame index translation happens internally via rs.
type BufferPool struct {
	fm       *file.FileManager
	replacer Replacer
	rs       *ReplacerShared
	poolSize int

	mu    sync.Mutex
	fetch singleflight.Group

	metrics Recorder
	policy  string
}

// NewBufferPool builds a BufferPool over an already-initialized replacer and
// its shared frame-allocation state.
func NewBufferPool(size int, fm *file.FileManager, replacer Replacer, shared *ReplacerShared) *BufferPool {
	if size <= 0 {
		panic(util.ErrInvalidPoolSize)
	}

	return &BufferPool{
		fm:       fm,
		replacer: replacer,
		rs:       shared,
		poolSize: size,
		policy:   "unknown",
	}
}

// WithMetrics attaches a metrics recorder and a policy label used on every
// counter increment. Safe to skip; a nil recorder is a no-op.
func (bp *BufferPool) WithMetrics(rec Recorder, policy string) *BufferPool {
	bp.metrics = rec
	bp.policy = policy
	return bp
}

// AllocateFrame fetches the page for pageID, pinning it in the pool. On a
// cache miss it evicts (flushing the victim if dirty) and reads the page
// from disk; concurrent misses for the same page id are coalesced into a
// single disk read.
func (bp *BufferPool) AllocateFrame(pageID util.PageID) (*page.Page, error) {
	bp.mu.Lock()
	if frameIdx, ok := bp.rs.pageToIdx[pageID]; ok {
		p, err := bp.replacer.GetPage(frameIdx)
		if err != nil {
			bp.mu.Unlock()
			return nil, err
		}
		if err := bp.replacer.Pin(frameIdx); err != nil {
			bp.mu.Unlock()
			return nil, err
		}
		bp.mu.Unlock()
		bp.recordHit()
		return p, nil
	}
	bp.mu.Unlock()

	bp.recordMiss()
	loaded := false
	v, err, _ := bp.fetch.Do(fmt.Sprintf("%d", pageID), func() (any, error) {
		loaded = true
		return bp.loadPage(pageID)
	})
	if err != nil {
		return nil, err
	}
	if !loaded {
		// The load was shared with a concurrent caller and pinned only for
		// it; look the page up again so this caller takes its own pin.
		return bp.AllocateFrame(pageID)
	}
	return v.(*page.Page), nil
}

func (bp *BufferPool) loadPage(pageID util.PageID) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	// Someone else may have installed this page while we waited for the
	// lock or for singleflight to schedule us.
	if frameIdx, ok := bp.rs.pageToIdx[pageID]; ok {
		p, err := bp.replacer.GetPage(frameIdx)
		if err != nil {
			return nil, err
		}
		if err := bp.replacer.Pin(frameIdx); err != nil {
			return nil, err
		}
		return p, nil
	}

	frameIdx, err := bp.replacer.RequestFree()
	if err != nil {
		return nil, fmt.Errorf("request free frame: %w", err)
	}
	bp.recordEvictionIfReused(frameIdx)

	if err := bp.flushIfDirty(frameIdx); err != nil {
		_ = bp.replacer.ResetFrameByIdx(frameIdx)
		return nil, fmt.Errorf("flush victim frame %d: %w", frameIdx, err)
	}

	p, err := bp.fm.ReadPage(pageID)
	if err != nil {
		_ = bp.replacer.ResetFrameByIdx(frameIdx)
		return nil, fmt.Errorf("read page %d: %w", pageID, err)
	}

	if err := bp.replacer.PutPage(frameIdx, p); err != nil {
		_ = bp.replacer.ResetFrameByIdx(frameIdx)
		return nil, fmt.Errorf("install page %d: %w", pageID, err)
	}
	bp.rs.pageToIdx[pageID] = frameIdx

	if err := bp.replacer.Pin(frameIdx); err != nil {
		return nil, fmt.Errorf("pin page %d: %w", pageID, err)
	}

	return p, nil
}

func (bp *BufferPool) flushIfDirty(frameIdx int) error {
	dirty, err := bp.replacer.IsDirty(frameIdx)
	if err != nil {
		if err == util.ErrFrameNotAllocated {
			return nil
		}
		return err
	}
	if !dirty {
		return nil
	}

	p, err := bp.replacer.GetPage(frameIdx)
	if err != nil {
		return err
	}
	return bp.fm.WritePage(p)
}

// PinFrame increments the pin count of the page already resident in the
// pool, keyed by page id.
func (bp *BufferPool) PinFrame(pageID util.PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameIdx, ok := bp.rs.pageToIdx[pageID]
	if !ok {
		return util.ErrPageNotFound
	}
	return bp.replacer.Pin(frameIdx)
}

// UnpinFrame decrements the pin count of pageID, optionally marking it
// dirty, making it eligible for eviction once unpinned.
func (bp *BufferPool) UnpinFrame(pageID util.PageID, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameIdx, ok := bp.rs.pageToIdx[pageID]
	if !ok {
		return util.ErrPageNotFound
	}
	return bp.replacer.Unpin(frameIdx, isDirty)
}

// MarkDirty flags the page resident for pageID as dirty without touching
// its pin count.
func (bp *BufferPool) MarkDirty(pageID util.PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameIdx, ok := bp.rs.pageToIdx[pageID]
	if !ok {
		return util.ErrPageNotFound
	}
	return bp.replacer.Dirty(frameIdx)
}

// FlushPage writes pageID back to disk if the replacer reports it dirty, then
// clears the dirty flag in the page header. The replacer's own per-frame
// dirty state is not cleared, so the frame still reports dirty afterwards.
func (bp *BufferPool) FlushPage(pageID util.PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameIdx, ok := bp.rs.pageToIdx[pageID]
	if !ok {
		return util.ErrPageNotFound
	}

	dirty, err := bp.replacer.IsDirty(frameIdx)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	p, err := bp.replacer.GetPage(frameIdx)
	if err != nil {
		return err
	}
	if err := bp.fm.WritePage(p); err != nil {
		return err
	}
	return p.Header.ClearDirtyFlag()
}

func (bp *BufferPool) Size() int {
	return bp.poolSize
}

func (bp *BufferPool) recordHit() {
	if bp.metrics != nil {
		bp.metrics.Hit(bp.policy)
	}
}

func (bp *BufferPool) recordMiss() {
	if bp.metrics != nil {
		bp.metrics.Miss(bp.policy)
	}
}

func (bp *BufferPool) recordEvictionIfReused(frameIdx int) {
	if bp.metrics == nil {
		return
	}
	if _, err := bp.replacer.GetPage(frameIdx); err == nil {
		bp.metrics.Eviction(bp.policy)
	}
}
