package disk

import (
	"testing"

	"github.com/Zhouua/minisql/internal/common"
)

func newBitmap() *BitmapPage {
	return WrapBitmapPage(make([]byte, common.PageSize))
}

func TestBitmapAllocateDeallocate(t *testing.T) {
	b := newBitmap()

	var off1, off2 uint32
	if !b.Allocate(&off1) {
		t.Fatal("Allocate on empty bitmap should succeed")
	}
	if !b.Allocate(&off2) {
		t.Fatal("second Allocate should succeed")
	}
	if off1 == off2 {
		t.Fatalf("two allocations returned the same offset %d", off1)
	}
	if b.IsFree(off1) || b.IsFree(off2) {
		t.Fatal("allocated offsets should not report free")
	}
	if n := b.PageAllocated(); n != 2 {
		t.Fatalf("PageAllocated() = %d, want 2", n)
	}

	if !b.Deallocate(off1) {
		t.Fatal("Deallocate of an allocated offset should succeed")
	}
	if !b.IsFree(off1) {
		t.Fatal("offset should be free after Deallocate")
	}
	if b.Deallocate(off1) {
		t.Fatal("Deallocate of an already-free offset should return false")
	}
}

func TestBitmapFullReturnsFalse(t *testing.T) {
	b := newBitmap()
	n := common.BitsPerExtent
	for i := 0; i < n; i++ {
		var off uint32
		if !b.Allocate(&off) {
			t.Fatalf("Allocate %d/%d unexpectedly failed", i, n)
		}
	}
	var off uint32
	if b.Allocate(&off) {
		t.Fatal("Allocate on a full bitmap should return false")
	}
	if n := b.PageAllocated(); n != common.BitsPerExtent {
		t.Fatalf("PageAllocated() = %d, want %d", n, common.BitsPerExtent)
	}
}

func TestBitmapCapacityMatchesPageBits(t *testing.T) {
	if Capacity() != common.PageSize*8 {
		t.Fatalf("Capacity() = %d, want %d", Capacity(), common.PageSize*8)
	}
}
