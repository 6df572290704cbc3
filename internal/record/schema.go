package record

import (
	"encoding/binary"
	"fmt"
)

// SchemaMagic tags a serialized Schema.
const SchemaMagic uint32 = 0x53434831 // "SCH1"

// Schema is an ordered list of Columns describing one table's row shape.
// IsManaged marks system catalog schemas (spec.md §4.8) as opposed to
// user-table schemas; it round-trips through the wire format so a reload
// can tell the two apart without extra bookkeeping.
type Schema struct {
	Columns   []Column
	IsManaged bool
}

// NewSchema builds a Schema over cols in order.
func NewSchema(cols []Column, isManaged bool) *Schema {
	return &Schema{Columns: cols, IsManaged: isManaged}
}

// ColumnCount returns the number of columns.
func (s *Schema) ColumnCount() int { return len(s.Columns) }

// ColumnIndex returns the ordinal position of the column named name.
func (s *Schema) ColumnIndex(name string) (uint32, error) {
	for i, c := range s.Columns {
		if c.Name == name {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("record: column %q not found in schema", name)
}

// SerializedSize returns the number of bytes Schema occupies when encoded.
func (s *Schema) SerializedSize() uint32 {
	size := uint32(4) + 1 + 4 // magic, is_managed, column count
	for _, c := range s.Columns {
		size += c.SerializedSize()
	}
	return size
}

// Encode appends s's wire representation to buf.
func (s *Schema) Encode(buf []byte) []byte {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], SchemaMagic)
	buf = append(buf, hdr[:]...)
	buf = append(buf, boolByte(s.IsManaged))

	var cnt [4]byte
	binary.LittleEndian.PutUint32(cnt[:], uint32(len(s.Columns)))
	buf = append(buf, cnt[:]...)

	for _, c := range s.Columns {
		buf = c.Encode(buf)
	}
	return buf
}

// DecodeSchema reads a Schema from the front of buf, returning it and the
// number of bytes consumed.
func DecodeSchema(buf []byte) (*Schema, uint32, error) {
	if len(buf) < 4 {
		return nil, 0, fmt.Errorf("record: truncated schema header")
	}
	off := uint32(0)
	magic := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	if magic != SchemaMagic {
		return nil, 0, fmt.Errorf("record: bad schema magic %#x", magic)
	}

	if len(buf) < int(off)+1 {
		return nil, 0, fmt.Errorf("record: truncated schema flags")
	}
	isManaged := buf[off] != 0
	off++

	if len(buf) < int(off)+4 {
		return nil, 0, fmt.Errorf("record: truncated schema column count")
	}
	count := binary.LittleEndian.Uint32(buf[off:])
	off += 4

	cols := make([]Column, 0, count)
	for i := uint32(0); i < count; i++ {
		col, n, err := DecodeColumn(buf[off:])
		if err != nil {
			return nil, 0, fmt.Errorf("record: decode column %d: %w", i, err)
		}
		cols = append(cols, col)
		off += n
	}

	return &Schema{Columns: cols, IsManaged: isManaged}, off, nil
}
