package heap

import (
	"github.com/Zhouua/minisql/internal/common"
	"github.com/Zhouua/minisql/internal/record"
)

// Iterator walks a TableHeap's live rows in page/slot order, from the
// first page's first tuple to the end of the chain. Ported from
// original_source's storage/table_iterator.{h,cpp}.
type Iterator struct {
	heap *TableHeap
	rid  common.RowID
}

// Begin returns an iterator positioned at the table's first live row, or
// already-at-End if the table is empty.
func (h *TableHeap) Begin() (*Iterator, error) {
	it := &Iterator{heap: h, rid: common.InvalidRowID}

	curID := h.firstPageID
	for curID != common.InvalidPageID {
		buf, err := h.pool.FetchPage(curID)
		if err != nil {
			return nil, err
		}
		page := WrapSlottedPage(buf)
		if slot, ok := page.GetFirstTupleRid(); ok {
			it.rid = common.NewRowID(curID, slot)
			h.pool.UnpinPage(curID, false)
			return it, nil
		}
		next := page.NextPageID()
		h.pool.UnpinPage(curID, false)
		curID = next
	}
	return it, nil
}

// End returns a sentinel iterator, equal to what Next returns once
// exhausted.
func (h *TableHeap) End() *Iterator {
	return &Iterator{heap: h, rid: common.InvalidRowID}
}

// Valid reports whether the iterator currently addresses a row.
func (it *Iterator) Valid() bool { return it.rid.Valid() }

// RowID returns the current position.
func (it *Iterator) RowID() common.RowID { return it.rid }

// Row reads the row at the current position.
func (it *Iterator) Row() (record.Row, error) {
	return it.heap.Get(it.rid)
}

// Next advances the iterator to the next live row, returning false once
// exhausted (it.Valid() becomes false in that case).
func (it *Iterator) Next() (bool, error) {
	if !it.rid.Valid() {
		return false, nil
	}
	pageID := it.rid.PageID()

	buf, err := it.heap.pool.FetchPage(pageID)
	if err != nil {
		return false, err
	}
	page := WrapSlottedPage(buf)
	if slot, ok := page.GetNextTupleRid(it.rid.Slot()); ok {
		it.rid = common.NewRowID(pageID, slot)
		it.heap.pool.UnpinPage(pageID, false)
		return true, nil
	}
	nextID := page.NextPageID()
	it.heap.pool.UnpinPage(pageID, false)

	for nextID != common.InvalidPageID {
		buf, err := it.heap.pool.FetchPage(nextID)
		if err != nil {
			return false, err
		}
		page := WrapSlottedPage(buf)
		if slot, ok := page.GetFirstTupleRid(); ok {
			it.rid = common.NewRowID(nextID, slot)
			it.heap.pool.UnpinPage(nextID, false)
			return true, nil
		}
		next := page.NextPageID()
		it.heap.pool.UnpinPage(nextID, false)
		nextID = next
	}

	it.rid = common.InvalidRowID
	return false, nil
}
