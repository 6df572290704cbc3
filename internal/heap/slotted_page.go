// Package heap implements the table heap: a singly linked list of slotted
// pages holding a table's rows, addressed by stable RowIDs, plus a
// forward-only iterator. Ported from original_source's
// storage/table_heap.cpp and storage/table_iterator.cpp.
package heap

import (
	"encoding/binary"

	"github.com/Zhouua/minisql/internal/common"
)

const (
	headerSize = 20
	slotSize   = 8

	pageIDOff         = 0
	prevPageIDOff     = 4
	nextPageIDOff     = 8
	freeSpacePtrOff   = 12
	slotCountOff      = 16
	slotDirectoryBase = headerSize
)

// tombstoneSize marks a slot whose tuple has been permanently removed by
// ApplyDelete: the slot entry stays (so later RowIDs keep meaning) but
// there is no data to read.
const tombstoneSize int32 = -1

// SlottedPage is an in-place view over one common.PageSize buffer, storing
// a growing slot directory from the front and tuple bytes from the back —
// the classic layout, not a page format invented for this exercise.
//
// This implementation does not compact reclaimed space: MarkDelete/
// ApplyDelete and a shrinking UpdateTuple all leave the vacated bytes
// unused until the page is reinitialized. A production table page would
// reclaim it; a teaching one keeps the arithmetic simple.
type SlottedPage struct {
	buf []byte
}

// WrapSlottedPage wraps an existing page buffer. buf must be exactly
// common.PageSize bytes.
func WrapSlottedPage(buf []byte) *SlottedPage {
	if len(buf) != common.PageSize {
		panic("heap: slotted page buffer has wrong size")
	}
	return &SlottedPage{buf: buf}
}

// Init resets buf to an empty page belonging to id, chained after prevID
// (common.InvalidPageID if this is the table's first page), with next
// initially invalid. Mirrors original_source's TableHeap::InsertTuple,
// which passes the current tail page's id as prev_page_id when it
// initializes a freshly allocated page.
func (p *SlottedPage) Init(id, prevID common.PageID) {
	for i := range p.buf {
		p.buf[i] = 0
	}
	p.setPageID(id)
	p.SetPrevPageID(prevID)
	p.SetNextPageID(common.InvalidPageID)
	p.setFreeSpacePtr(common.PageSize)
	p.setSlotCount(0)
}

func (p *SlottedPage) setPageID(id common.PageID) {
	binary.LittleEndian.PutUint32(p.buf[pageIDOff:], uint32(id))
}

// PageID returns the id stamped into this page's header.
func (p *SlottedPage) PageID() common.PageID {
	return common.PageID(binary.LittleEndian.Uint32(p.buf[pageIDOff:]))
}

// PrevPageID returns the previous page in the table's linked list, or
// common.InvalidPageID if this is the first page.
func (p *SlottedPage) PrevPageID() common.PageID {
	return common.PageID(binary.LittleEndian.Uint32(p.buf[prevPageIDOff:]))
}

// SetPrevPageID links this page back to its predecessor in the table.
func (p *SlottedPage) SetPrevPageID(id common.PageID) {
	binary.LittleEndian.PutUint32(p.buf[prevPageIDOff:], uint32(id))
}

// NextPageID returns the next page in the table's linked list, or
// common.InvalidPageID if this is the last page.
func (p *SlottedPage) NextPageID() common.PageID {
	return common.PageID(binary.LittleEndian.Uint32(p.buf[nextPageIDOff:]))
}

// SetNextPageID links this page to the next one in the table.
func (p *SlottedPage) SetNextPageID(id common.PageID) {
	binary.LittleEndian.PutUint32(p.buf[nextPageIDOff:], uint32(id))
}

func (p *SlottedPage) freeSpacePtr() int {
	return int(binary.LittleEndian.Uint32(p.buf[freeSpacePtrOff:]))
}

func (p *SlottedPage) setFreeSpacePtr(v int) {
	binary.LittleEndian.PutUint32(p.buf[freeSpacePtrOff:], uint32(v))
}

// SlotCount returns the number of slot entries, live or deleted.
func (p *SlottedPage) SlotCount() uint32 {
	return binary.LittleEndian.Uint32(p.buf[slotCountOff:])
}

func (p *SlottedPage) setSlotCount(n uint32) {
	binary.LittleEndian.PutUint32(p.buf[slotCountOff:], n)
}

func (p *SlottedPage) slotEntryOff(slot uint32) int {
	return slotDirectoryBase + int(slot)*slotSize
}

func (p *SlottedPage) getSlot(slot uint32) (offset uint32, size int32) {
	off := p.slotEntryOff(slot)
	offset = binary.LittleEndian.Uint32(p.buf[off:])
	size = int32(binary.LittleEndian.Uint32(p.buf[off+4:]))
	return
}

func (p *SlottedPage) setSlot(slot uint32, offset uint32, size int32) {
	off := p.slotEntryOff(slot)
	binary.LittleEndian.PutUint32(p.buf[off:], offset)
	binary.LittleEndian.PutUint32(p.buf[off+4:], uint32(size))
}

// InsertTuple appends data as a new slot, returning its slot index. It
// fails if there is not enough contiguous free space for both the tuple
// bytes and a new slot directory entry.
func (p *SlottedPage) InsertTuple(data []byte) (uint32, bool) {
	slotCount := p.SlotCount()
	dirEnd := slotDirectoryBase + int(slotCount+1)*slotSize
	need := len(data)
	if p.freeSpacePtr()-dirEnd < need {
		return 0, false
	}
	newFree := p.freeSpacePtr() - need
	copy(p.buf[newFree:newFree+need], data)
	p.setSlot(slotCount, uint32(newFree), int32(need))
	p.setSlotCount(slotCount + 1)
	p.setFreeSpacePtr(newFree)
	return slotCount, true
}

// GetTuple returns the bytes stored at slot, or ok=false if the slot is out
// of range, deleted, or only marked for deletion.
func (p *SlottedPage) GetTuple(slot uint32) ([]byte, bool) {
	if slot >= p.SlotCount() {
		return nil, false
	}
	offset, size := p.getSlot(slot)
	if size < 0 {
		return nil, false
	}
	return p.buf[offset : offset+uint32(size)], true
}

// MarkDelete flags slot as pending deletion without discarding its bytes,
// so RollbackDelete can undo it. Returns false if slot is out of range or
// already deleted/marked.
func (p *SlottedPage) MarkDelete(slot uint32) bool {
	if slot >= p.SlotCount() {
		return false
	}
	offset, size := p.getSlot(slot)
	if size < 0 {
		return false
	}
	p.setSlot(slot, offset, -(size + 2))
	return true
}

// RollbackDelete reverses a prior MarkDelete. Returns false if slot was not
// marked for deletion.
func (p *SlottedPage) RollbackDelete(slot uint32) bool {
	if slot >= p.SlotCount() {
		return false
	}
	offset, size := p.getSlot(slot)
	if size >= 0 || size == tombstoneSize {
		return false
	}
	p.setSlot(slot, offset, -size-2)
	return true
}

// ApplyDelete permanently removes slot's tuple, whether or not it was
// previously marked. Returns false if slot is out of range or already
// permanently deleted.
func (p *SlottedPage) ApplyDelete(slot uint32) bool {
	if slot >= p.SlotCount() {
		return false
	}
	_, size := p.getSlot(slot)
	if size == tombstoneSize {
		return false
	}
	offset, _ := p.getSlot(slot)
	p.setSlot(slot, offset, tombstoneSize)
	return true
}

// UpdateTuple replaces slot's bytes with newData in place when it fits in
// the already-used slot size, or carves fresh space from the free region
// otherwise. Returns false (leaving the old tuple untouched) if slot is
// invalid/deleted or there isn't room for a larger replacement — the
// caller is expected to retry as a delete-then-insert rather than this
// method doing so internally.
func (p *SlottedPage) UpdateTuple(slot uint32, newData []byte) bool {
	if slot >= p.SlotCount() {
		return false
	}
	offset, size := p.getSlot(slot)
	if size < 0 {
		return false
	}
	need := len(newData)
	if need <= int(size) {
		copy(p.buf[offset:offset+uint32(need)], newData)
		p.setSlot(slot, offset, int32(need))
		return true
	}
	dirEnd := slotDirectoryBase + int(p.SlotCount())*slotSize
	if p.freeSpacePtr()-dirEnd < need {
		return false
	}
	newFree := p.freeSpacePtr() - need
	copy(p.buf[newFree:newFree+need], newData)
	p.setSlot(slot, uint32(newFree), int32(need))
	p.setFreeSpacePtr(newFree)
	return true
}

// GetFirstTupleRid returns the slot index of the first live tuple, or
// ok=false if the page has none.
func (p *SlottedPage) GetFirstTupleRid() (uint32, bool) {
	for i := uint32(0); i < p.SlotCount(); i++ {
		if _, size := p.getSlot(i); size >= 0 {
			return i, true
		}
	}
	return 0, false
}

// GetNextTupleRid returns the slot index of the next live tuple after
// slot, or ok=false if there is none on this page.
func (p *SlottedPage) GetNextTupleRid(slot uint32) (uint32, bool) {
	for i := slot + 1; i < p.SlotCount(); i++ {
		if _, size := p.getSlot(i); size >= 0 {
			return i, true
		}
	}
	return 0, false
}

// FreeBytes reports how many bytes are available for a new tuple plus its
// directory entry, mainly for tests and diagnostics.
func (p *SlottedPage) FreeBytes() int {
	dirEnd := slotDirectoryBase + int(p.SlotCount()+1)*slotSize
	n := p.freeSpacePtr() - dirEnd
	if n < 0 {
		return 0
	}
	return n
}
