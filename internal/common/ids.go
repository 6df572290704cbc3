// Package common holds the identifiers, sentinels and error codes shared by
// every layer of the storage core (disk manager, buffer pool, table heap,
// recovery manager). Keeping them in one leaf package avoids import cycles
// between layers that otherwise all need to talk about the same PageID.
package common

import "fmt"

// PageID identifies a logical page. Logical page ids are translated to
// physical offsets by the disk manager; nothing above the disk manager
// ever sees a physical page number.
type PageID int32

// FrameID identifies a slot in the buffer pool's frame array.
type FrameID int32

// LSN is a log sequence number, monotonically increasing from zero.
type LSN int64

// TxnID identifies a transaction.
type TxnID int64

// Sentinels, per spec.md §6.
const (
	InvalidPageID  PageID  = -1
	InvalidFrameID FrameID = -1
	InvalidLSN     LSN     = -1
	InvalidTxnID   TxnID   = -1
)

// PageSize is the fixed size of every page on disk and in the buffer pool.
const PageSize = 4096

// BitsPerExtent is the number of data pages covered by one bitmap page,
// i.e. the number of bits a single page-sized bitmap holds (spec.md §3:
// "N = number of bits that fit in a page, e.g. 32,768 for 4 KiB pages").
const BitsPerExtent = PageSize * 8

// RowID is the stable identifier of a row: a (page id, slot index) pair
// packed into a single 64-bit integer so it can be used as a map key or
// compared with ==.
type RowID int64

// InvalidRowID is the RowID sentinel, (-1, 0).
var InvalidRowID = NewRowID(InvalidPageID, 0)

// NewRowID packs a page id and slot index into a RowID.
func NewRowID(page PageID, slot uint32) RowID {
	return RowID(int64(uint32(page))<<32 | int64(slot))
}

// PageID returns the page id half of the RowID.
func (r RowID) PageID() PageID {
	return PageID(uint32(int64(r) >> 32))
}

// Slot returns the slot index half of the RowID.
func (r RowID) Slot() uint32 {
	return uint32(int64(r) & 0xffffffff)
}

// Valid reports whether the RowID addresses a real page.
func (r RowID) Valid() bool {
	return r.PageID() != InvalidPageID
}

// String renders a RowID as "(page,slot)", mainly for logs and test failures.
func (r RowID) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageID(), r.Slot())
}
