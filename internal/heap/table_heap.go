package heap

import (
	"fmt"

	"github.com/Zhouua/minisql/internal/buffer"
	"github.com/Zhouua/minisql/internal/common"
	"github.com/Zhouua/minisql/internal/record"
)

// TableHeap is a table's storage: a singly linked list of SlottedPages
// reached through a buffer pool, addressed by RowID. Ported from
// original_source's storage/table_heap.cpp.
type TableHeap struct {
	pool        *buffer.Pool
	schema      *record.Schema
	firstPageID common.PageID
}

// NewTableHeap creates a brand-new, empty table heap: it allocates the
// first page itself.
func NewTableHeap(pool *buffer.Pool, schema *record.Schema) (*TableHeap, error) {
	id, buf, err := pool.NewPage()
	if err != nil {
		return nil, fmt.Errorf("heap: allocate first page: %w", err)
	}
	WrapSlottedPage(buf).Init(id, common.InvalidPageID)
	if ok := pool.UnpinPage(id, true); !ok {
		return nil, fmt.Errorf("heap: unpin freshly allocated first page %d", id)
	}
	return &TableHeap{pool: pool, schema: schema, firstPageID: id}, nil
}

// OpenTableHeap reopens a table heap whose first page is already on disk
// (read from the catalog).
func OpenTableHeap(pool *buffer.Pool, schema *record.Schema, firstPageID common.PageID) *TableHeap {
	return &TableHeap{pool: pool, schema: schema, firstPageID: firstPageID}
}

// FirstPageID returns the id of the table's first page, to be recorded in
// the catalog.
func (h *TableHeap) FirstPageID() common.PageID { return h.firstPageID }

// Insert appends row to the table, walking the page list for room and
// allocating a new last page if none has space. It refuses rows that
// could never fit on any page.
func (h *TableHeap) Insert(row record.Row) (common.RowID, error) {
	data, err := row.Encode(h.schema)
	if err != nil {
		return common.InvalidRowID, fmt.Errorf("heap: encode row: %w", err)
	}
	if len(data) > common.PageSize-headerSize-slotSize {
		return common.InvalidRowID, fmt.Errorf("heap: %w", ErrRowTooLarge)
	}

	curID := h.firstPageID
	prevID := h.firstPageID
	for curID != common.InvalidPageID {
		buf, err := h.pool.FetchPage(curID)
		if err != nil {
			return common.InvalidRowID, fmt.Errorf("heap: fetch page %d: %w", curID, err)
		}
		page := WrapSlottedPage(buf)
		if slot, ok := page.InsertTuple(data); ok {
			h.pool.UnpinPage(curID, true)
			return common.NewRowID(curID, slot), nil
		}
		prevID = curID
		nextID := page.NextPageID()
		h.pool.UnpinPage(curID, false)
		curID = nextID
	}

	newID, newBuf, err := h.pool.NewPage()
	if err != nil {
		return common.InvalidRowID, fmt.Errorf("heap: allocate new page: %w", err)
	}
	newPage := WrapSlottedPage(newBuf)
	newPage.Init(newID, prevID)
	slot, ok := newPage.InsertTuple(data)
	if !ok {
		h.pool.UnpinPage(newID, false)
		return common.InvalidRowID, fmt.Errorf("heap: row does not fit even on an empty page")
	}
	h.pool.UnpinPage(newID, true)

	prevBuf, err := h.pool.FetchPage(prevID)
	if err != nil {
		return common.InvalidRowID, fmt.Errorf("heap: relink previous page %d: %w", prevID, err)
	}
	WrapSlottedPage(prevBuf).SetNextPageID(newID)
	h.pool.UnpinPage(prevID, true)

	return common.NewRowID(newID, slot), nil
}

// MarkDelete flags rid for deletion, reversible via RollbackDelete until
// ApplyDelete makes it permanent.
func (h *TableHeap) MarkDelete(rid common.RowID) error {
	buf, err := h.pool.FetchPage(rid.PageID())
	if err != nil {
		return fmt.Errorf("heap: fetch page for mark-delete: %w", err)
	}
	ok := WrapSlottedPage(buf).MarkDelete(rid.Slot())
	h.pool.UnpinPage(rid.PageID(), true)
	if !ok {
		return fmt.Errorf("heap: mark-delete %s: %w", rid, ErrRowNotFound)
	}
	return nil
}

// RollbackDelete reverses a prior MarkDelete of rid.
func (h *TableHeap) RollbackDelete(rid common.RowID) error {
	buf, err := h.pool.FetchPage(rid.PageID())
	if err != nil {
		return fmt.Errorf("heap: fetch page for rollback-delete: %w", err)
	}
	ok := WrapSlottedPage(buf).RollbackDelete(rid.Slot())
	h.pool.UnpinPage(rid.PageID(), true)
	if !ok {
		return fmt.Errorf("heap: rollback-delete %s: %w", rid, ErrRowNotFound)
	}
	return nil
}

// ApplyDelete permanently removes rid's row.
func (h *TableHeap) ApplyDelete(rid common.RowID) error {
	buf, err := h.pool.FetchPage(rid.PageID())
	if err != nil {
		return fmt.Errorf("heap: fetch page for apply-delete: %w", err)
	}
	ok := WrapSlottedPage(buf).ApplyDelete(rid.Slot())
	h.pool.UnpinPage(rid.PageID(), true)
	if !ok {
		return fmt.Errorf("heap: apply-delete %s: %w", rid, ErrRowNotFound)
	}
	return nil
}

// Update replaces rid's row with newRow in place. It fails (leaving the
// old row untouched) when the new encoding cannot fit on rid's page; the
// caller must delete and re-insert itself rather than relying on Update to
// do so, per this engine's resolution of that design question.
func (h *TableHeap) Update(rid common.RowID, newRow record.Row) error {
	data, err := newRow.Encode(h.schema)
	if err != nil {
		return fmt.Errorf("heap: encode updated row: %w", err)
	}
	buf, err := h.pool.FetchPage(rid.PageID())
	if err != nil {
		return fmt.Errorf("heap: fetch page for update: %w", err)
	}
	ok := WrapSlottedPage(buf).UpdateTuple(rid.Slot(), data)
	h.pool.UnpinPage(rid.PageID(), ok)
	if !ok {
		return fmt.Errorf("heap: update %s: %w", rid, ErrRowDoesNotFit)
	}
	return nil
}

// Get reads rid's row.
func (h *TableHeap) Get(rid common.RowID) (record.Row, error) {
	buf, err := h.pool.FetchPage(rid.PageID())
	if err != nil {
		return record.Row{}, fmt.Errorf("heap: fetch page for get: %w", err)
	}
	defer h.pool.UnpinPage(rid.PageID(), false)

	raw, ok := WrapSlottedPage(buf).GetTuple(rid.Slot())
	if !ok {
		return record.Row{}, fmt.Errorf("heap: get %s: %w", rid, ErrRowNotFound)
	}
	row, _, err := record.DecodeRow(raw, h.schema)
	if err != nil {
		return record.Row{}, fmt.Errorf("heap: decode row %s: %w", rid, err)
	}
	return row, nil
}

// DeleteTable frees every page belonging to the table. It walks the chain
// from the first page and frees the pages in reverse, last page first.
func (h *TableHeap) DeleteTable() error {
	return h.deletePageChain(h.firstPageID)
}

func (h *TableHeap) deletePageChain(id common.PageID) error {
	if id == common.InvalidPageID {
		return nil
	}
	buf, err := h.pool.FetchPage(id)
	if err != nil {
		return fmt.Errorf("heap: fetch page %d for delete-table: %w", id, err)
	}
	next := WrapSlottedPage(buf).NextPageID()
	h.pool.UnpinPage(id, false)

	if err := h.deletePageChain(next); err != nil {
		return err
	}
	if err := h.pool.DeletePage(id); err != nil {
		return fmt.Errorf("heap: delete page %d: %w", id, err)
	}
	return nil
}
