package record

import (
	"encoding/binary"
	"fmt"
)

// ColumnMagic tags a serialized Column, matching the wire-format invariant
// used throughout this codec: every top-level structure starts with a
// magic number so a corrupt or mismatched read fails loudly.
const ColumnMagic uint32 = 0x434f4c31 // "COL1"

// Column describes one field of a Schema: its name, type, declared length
// (meaningful only for CHAR), its position, and nullability/uniqueness.
type Column struct {
	Name     string
	Type     TypeID
	Len      uint32 // byte length on disk; only meaningful for TypeChar
	Index    uint32 // ordinal position within the owning Schema
	Nullable bool
	Unique   bool
}

// NewColumn builds a fixed-width (INT or FLOAT) column. Panics if t is
// TypeChar — use NewCharColumn for that, mirroring the two-constructor
// split of original_source's Column type.
func NewColumn(name string, t TypeID, index uint32, nullable, unique bool) Column {
	var length uint32
	switch t {
	case TypeInt, TypeFloat:
		length = 4
	default:
		panic("record: NewColumn used for a non-fixed-width type; use NewCharColumn")
	}
	return Column{Name: name, Type: t, Len: length, Index: index, Nullable: nullable, Unique: unique}
}

// NewCharColumn builds a CHAR(length) column.
func NewCharColumn(name string, length, index uint32, nullable, unique bool) Column {
	return Column{Name: name, Type: TypeChar, Len: length, Index: index, Nullable: nullable, Unique: unique}
}

// SerializedSize returns the number of bytes Column occupies when encoded.
// Unlike the source this ported from, the length field is only present for
// CHAR columns — fixed-width columns derive their length from their type,
// so there is nothing ambiguous to store redundantly.
func (c Column) SerializedSize() uint32 {
	size := uint32(4) + // magic
		4 + uint32(len(c.Name)) + // name length + name bytes
		1 + // type
		4 + // table index
		1 + 1 // nullable, unique
	if c.Type == TypeChar {
		size += 4 // char_len, only for CHAR
	}
	return size
}

// Encode appends c's wire representation to buf, returning the extended slice.
func (c Column) Encode(buf []byte) []byte {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], ColumnMagic)
	buf = append(buf, hdr[:]...)

	var nameLen [4]byte
	binary.LittleEndian.PutUint32(nameLen[:], uint32(len(c.Name)))
	buf = append(buf, nameLen[:]...)
	buf = append(buf, c.Name...)

	buf = append(buf, byte(c.Type))

	if c.Type == TypeChar {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], c.Len)
		buf = append(buf, lenBuf[:]...)
	}

	var idxBuf [4]byte
	binary.LittleEndian.PutUint32(idxBuf[:], c.Index)
	buf = append(buf, idxBuf[:]...)

	buf = append(buf, boolByte(c.Nullable), boolByte(c.Unique))
	return buf
}

// DecodeColumn reads one Column from the front of buf and returns it along
// with the number of bytes consumed.
func DecodeColumn(buf []byte) (Column, uint32, error) {
	if len(buf) < 4 {
		return Column{}, 0, fmt.Errorf("record: truncated column header")
	}
	off := uint32(0)
	magic := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	if magic != ColumnMagic {
		return Column{}, 0, fmt.Errorf("record: bad column magic %#x", magic)
	}

	if len(buf) < int(off)+4 {
		return Column{}, 0, fmt.Errorf("record: truncated column name length")
	}
	nameLen := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	if len(buf) < int(off)+int(nameLen) {
		return Column{}, 0, fmt.Errorf("record: truncated column name")
	}
	name := string(buf[off : off+nameLen])
	off += nameLen

	if len(buf) < int(off)+1 {
		return Column{}, 0, fmt.Errorf("record: truncated column type")
	}
	t := TypeID(buf[off])
	off++

	var length uint32
	switch t {
	case TypeInt, TypeFloat:
		length = 4
	case TypeChar:
		if len(buf) < int(off)+4 {
			return Column{}, 0, fmt.Errorf("record: truncated column char length")
		}
		length = binary.LittleEndian.Uint32(buf[off:])
		off += 4
	default:
		return Column{}, 0, fmt.Errorf("record: unknown column type %d", t)
	}

	if len(buf) < int(off)+4 {
		return Column{}, 0, fmt.Errorf("record: truncated column index")
	}
	index := binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if len(buf) < int(off)+2 {
		return Column{}, 0, fmt.Errorf("record: truncated column flags")
	}
	nullable := buf[off] != 0
	off++
	unique := buf[off] != 0
	off++

	return Column{Name: name, Type: t, Len: length, Index: index, Nullable: nullable, Unique: unique}, off, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
