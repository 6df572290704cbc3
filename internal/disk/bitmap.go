package disk

import (
	"math/bits"

	"github.com/Zhouua/minisql/internal/common"
)

// BitmapPage represents the allocation state of exactly one extent. Bit i
// set means "page i of this extent is allocated"; bit i clear means free.
// It wraps a page-sized buffer in place — no copy, no header bytes stolen
// from the bit array, so one bitmap page covers common.BitsPerExtent pages
// (ported from original_source's bitmap_page.cpp).
type BitmapPage struct {
	buf  []byte // len == common.PageSize, entirely bits
	hint uint32 // next offset likely to be free; an optimization only
}

// WrapBitmapPage wraps an existing page buffer as a BitmapPage. buf must be
// exactly common.PageSize bytes and is not copied.
func WrapBitmapPage(buf []byte) *BitmapPage {
	if len(buf) != common.PageSize {
		panic("disk: bitmap page buffer has wrong size")
	}
	return &BitmapPage{buf: buf}
}

// Capacity returns the number of pages this bitmap can describe.
func Capacity() int { return common.BitsPerExtent }

// PageAllocated returns the number of allocated pages in this extent. It is
// the popcount of the bitmap — always recomputed, never trusted as cached
// state, so it can never drift from the bits it is describing.
func (b *BitmapPage) PageAllocated() int {
	n := 0
	for _, by := range b.buf {
		n += bits.OnesCount8(by)
	}
	return n
}

// IsFree reports whether page offset (0-based, within this extent) is free.
func (b *BitmapPage) IsFree(offset uint32) bool {
	byteIdx, bitIdx := offset/8, offset%8
	return b.buf[byteIdx]&(1<<bitIdx) == 0
}

// Allocate scans from the cached hint for the first free bit, sets it, and
// writes the allocated offset to *out. It returns false iff every bit in
// the extent is set. Correctness never depends on the hint: a stale or
// zero hint just costs a longer scan.
func (b *BitmapPage) Allocate(out *uint32) bool {
	n := uint32(common.BitsPerExtent)
	start := b.hint % n
	for i := uint32(0); i < n; i++ {
		offset := (start + i) % n
		if b.IsFree(offset) {
			byteIdx, bitIdx := offset/8, offset%8
			b.buf[byteIdx] |= 1 << bitIdx
			b.hint = offset + 1
			*out = offset
			return true
		}
	}
	return false
}

// Deallocate clears bit offset. It returns true iff the bit was set; false
// if the page was already free (a no-op deallocation is not an error).
func (b *BitmapPage) Deallocate(offset uint32) bool {
	if b.IsFree(offset) {
		return false
	}
	byteIdx, bitIdx := offset/8, offset%8
	b.buf[byteIdx] &^= 1 << bitIdx
	if offset < b.hint {
		b.hint = offset
	}
	return true
}

// Bytes returns the underlying page buffer.
func (b *BitmapPage) Bytes() []byte { return b.buf }
