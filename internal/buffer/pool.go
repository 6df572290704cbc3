package buffer

import (
	"fmt"
	"log"
	"sync"

	"github.com/Zhouua/minisql/internal/common"
	"github.com/Zhouua/minisql/internal/disk"
)

// frame holds one cached page and its bookkeeping. PageID is
// common.InvalidPageID when the frame is unused.
type frame struct {
	pageID common.PageID
	pinCnt int
	dirty  bool
	data   [common.PageSize]byte
}

// Pool is the buffer pool manager: a fixed set of frames backed by a disk
// manager, with a pluggable Replacer choosing eviction victims among
// unpinned frames (spec.md §4.3, §4.4).
//
// Every exported method holds one mutex for its whole body, including the
// disk I/O it triggers on a miss — a teaching-oriented simplification the
// spec calls out explicitly rather than a production concurrency model.
type Pool struct {
	mu sync.Mutex

	disk     *disk.Manager
	replacer Replacer
	logger   *log.Logger

	frames    []frame
	pageTable map[common.PageID]common.FrameID
	freeList  []common.FrameID
}

// NewPool creates a pool of poolSize frames over dm. If replacer is nil,
// an LRUReplacer is used.
func NewPool(dm *disk.Manager, poolSize int, replacer Replacer, logger *log.Logger) *Pool {
	if replacer == nil {
		replacer = NewLRUReplacer(poolSize)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "buffer: ", log.LstdFlags)
	}
	p := &Pool{
		disk:      dm,
		replacer:  replacer,
		logger:    logger,
		frames:    make([]frame, poolSize),
		pageTable: make(map[common.PageID]common.FrameID, poolSize),
		freeList:  make([]common.FrameID, poolSize),
	}
	for i := range p.frames {
		p.frames[i].pageID = common.InvalidPageID
		p.freeList[i] = common.FrameID(poolSize - 1 - i)
	}
	return p
}

// findFreeFrameLocked returns a frame to use for a new page: from the free
// list first, else from the replacer. It flushes the victim frame if dirty.
// Returns common.InvalidFrameID if nothing is available.
func (p *Pool) findFreeFrameLocked() (common.FrameID, error) {
	if n := len(p.freeList); n > 0 {
		fid := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return fid, nil
	}

	var fid common.FrameID
	if !p.replacer.Victim(&fid) {
		return common.InvalidFrameID, nil
	}
	victim := &p.frames[fid]
	if victim.dirty {
		if err := p.disk.WritePage(victim.pageID, victim.data[:]); err != nil {
			return common.InvalidFrameID, fmt.Errorf("buffer: flush victim frame: %w", err)
		}
	}
	delete(p.pageTable, victim.pageID)
	victim.pageID = common.InvalidPageID
	victim.dirty = false
	return fid, nil
}

// FetchPage pins and returns the bytes of page id, reading it from disk on
// a cache miss. The returned slice aliases the frame's buffer directly; the
// caller must not retain it past the matching UnpinPage.
func (p *Pool) FetchPage(id common.PageID) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable[id]; ok {
		f := &p.frames[fid]
		f.pinCnt++
		p.replacer.Pin(fid)
		return f.data[:], nil
	}

	fid, err := p.findFreeFrameLocked()
	if err != nil {
		return nil, err
	}
	if fid == common.InvalidFrameID {
		return nil, fmt.Errorf("buffer: %w", ErrPoolFull)
	}

	f := &p.frames[fid]
	if err := p.disk.ReadPage(id, f.data[:]); err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, fmt.Errorf("buffer: fetch page %d: %w", id, err)
	}
	f.pageID = id
	f.pinCnt = 1
	f.dirty = false
	p.pageTable[id] = fid
	p.replacer.Pin(fid)
	return f.data[:], nil
}

// NewPage allocates a fresh page on disk, pins a frame for it, and returns
// the new page's id together with its (zeroed) buffer.
func (p *Pool) NewPage() (common.PageID, []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, err := p.findFreeFrameLocked()
	if err != nil {
		return common.InvalidPageID, nil, err
	}
	if fid == common.InvalidFrameID {
		return common.InvalidPageID, nil, fmt.Errorf("buffer: %w", ErrPoolFull)
	}

	id, err := p.disk.AllocatePage()
	if err != nil {
		p.freeList = append(p.freeList, fid)
		return common.InvalidPageID, nil, fmt.Errorf("buffer: new page: %w", err)
	}

	f := &p.frames[fid]
	for i := range f.data {
		f.data[i] = 0
	}
	f.pageID = id
	f.pinCnt = 1
	f.dirty = false
	p.pageTable[id] = fid
	p.replacer.Pin(fid)
	return id, f.data[:], nil
}

// UnpinPage decrements id's pin count (floored at zero), marking it dirty if
// isDirty is true. Once the pin count drops to zero the frame becomes
// eligible for eviction. Returns false only if id is not currently
// buffered — per spec.md §9 ambiguity #4, that absent-mapping case is the
// only one UnpinPage reports as failure; once the mapping is found it
// always returns true, matching original_source's UnpinPage, which floors
// the decrement and returns true unconditionally.
func (p *Pool) UnpinPage(id common.PageID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[id]
	if !ok {
		return false
	}
	f := &p.frames[fid]
	if isDirty {
		f.dirty = true
	}
	if f.pinCnt > 0 {
		f.pinCnt--
		if f.pinCnt == 0 {
			p.replacer.Unpin(fid)
		}
	}
	return true
}

// FlushPage writes id's frame to disk unconditionally, clearing its dirty
// bit. Returns false if id is not currently buffered.
func (p *Pool) FlushPage(id common.PageID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fid, ok := p.pageTable[id]
	if !ok {
		return false, nil
	}
	f := &p.frames[fid]
	if err := p.disk.WritePage(id, f.data[:]); err != nil {
		return false, fmt.Errorf("buffer: flush page %d: %w", id, err)
	}
	f.dirty = false
	return true, nil
}

// FlushAllPages flushes every buffered page, dirty or not.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, fid := range p.pageTable {
		f := &p.frames[fid]
		if err := p.disk.WritePage(id, f.data[:]); err != nil {
			return fmt.Errorf("buffer: flush page %d: %w", id, err)
		}
		f.dirty = false
	}
	return nil
}

// DeletePage frees page id both in the buffer pool and on disk. It fails if
// the page is currently pinned. Deleting a page not currently buffered is
// not an error — it is simply deallocated on disk.
func (p *Pool) DeletePage(id common.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, buffered := p.pageTable[id]
	if buffered {
		f := &p.frames[fid]
		if f.pinCnt > 0 {
			return fmt.Errorf("buffer: delete page %d: %w", id, ErrPagePinned)
		}
		// Capture the frame id before erasing the mapping: the source's
		// documented bug erases pageTable[id] first and then looks it up
		// again to recycle the frame, finding nothing. Fixed per spec.md §9.
		p.replacer.Pin(fid)
		delete(p.pageTable, id)
		f.pageID = common.InvalidPageID
		f.dirty = false
		f.pinCnt = 0
		p.freeList = append(p.freeList, fid)
	}

	if err := p.disk.DeallocatePage(id); err != nil {
		return fmt.Errorf("buffer: deallocate page %d: %w", id, err)
	}
	return nil
}
