package disk

import (
	"path/filepath"
	"testing"

	"github.com/Zhouua/minisql/internal/common"
)

func openTemp(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	m, err := Open(Options{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestAllocateWriteReadPage(t *testing.T) {
	m := openTemp(t)

	id, err := m.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if id != 0 {
		t.Fatalf("first AllocatePage on a fresh file returned %d, want 0", id)
	}

	data := make([]byte, common.PageSize)
	for i := range data {
		data[i] = byte(i)
	}
	if err := m.WritePage(id, data); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	read := make([]byte, common.PageSize)
	if err := m.ReadPage(id, read); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i := range data {
		if read[i] != data[i] {
			t.Fatalf("byte %d mismatch: got %d, want %d", i, read[i], data[i])
		}
	}
}

func TestDeallocateIsIdempotentAndFreesPage(t *testing.T) {
	m := openTemp(t)

	id, err := m.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	free, err := m.IsPageFree(id)
	if err != nil {
		t.Fatalf("IsPageFree: %v", err)
	}
	if free {
		t.Fatal("freshly allocated page should not be free")
	}

	if err := m.DeallocatePage(id); err != nil {
		t.Fatalf("DeallocatePage: %v", err)
	}
	free, err = m.IsPageFree(id)
	if err != nil {
		t.Fatalf("IsPageFree: %v", err)
	}
	if !free {
		t.Fatal("page should be free after DeallocatePage")
	}

	if err := m.DeallocatePage(id); err != nil {
		t.Fatalf("second DeallocatePage should be a no-op, got error: %v", err)
	}
}

func TestReopenPreservesInstanceIDAndAllocationState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	m1, err := Open(Options{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := m1.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	wantInstance := m1.InstanceID()
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := Open(Options{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()

	if m2.InstanceID() != wantInstance {
		t.Fatalf("instance id changed across reopen: got %v, want %v", m2.InstanceID(), wantInstance)
	}
	free, err := m2.IsPageFree(id)
	if err != nil {
		t.Fatalf("IsPageFree after reopen: %v", err)
	}
	if free {
		t.Fatal("previously allocated page should still be allocated after reopen")
	}
}

func TestAllocateAcrossExtentBoundary(t *testing.T) {
	m := openTemp(t)

	var last common.PageID = -1
	for i := 0; i < common.BitsPerExtent+5; i++ {
		id, err := m.AllocatePage()
		if err != nil {
			t.Fatalf("AllocatePage %d: %v", i, err)
		}
		if id == last {
			t.Fatalf("AllocatePage %d returned duplicate id %d", i, id)
		}
		last = id
	}
	if n := m.NumExtents(); n < 2 {
		t.Fatalf("expected at least 2 extents after crossing the boundary, got %d", n)
	}
}
