// Package record implements the typed, null-aware tuple format stored in
// table pages: Column, Schema, Field and Row, with a magic-tagged binary
// codec ported from original_source's record/{column,schema,row}.cpp.
package record

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TypeID names a field's storage type. Kept intentionally small — spec.md
// only requires fixed-width ints/floats and fixed-length char fields.
type TypeID uint8

const (
	TypeInvalid TypeID = iota
	TypeInt
	TypeFloat
	TypeChar
)

func (t TypeID) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeChar:
		return "CHAR"
	default:
		return "INVALID"
	}
}

// Field holds one value of a Row. A null field carries no payload
// regardless of its declared type; Int/Float/Str are meaningless when
// Null is true.
type Field struct {
	Type TypeID
	Null bool
	Int  int32
	Flt  float32
	Str  string
}

// NewIntField builds a non-null INT field.
func NewIntField(v int32) Field { return Field{Type: TypeInt, Int: v} }

// NewFloatField builds a non-null FLOAT field.
func NewFloatField(v float32) Field { return Field{Type: TypeFloat, Flt: v} }

// NewCharField builds a non-null CHAR field. The column's declared length
// governs on-disk padding/truncation, not this constructor.
func NewCharField(v string) Field { return Field{Type: TypeChar, Str: v} }

// NewNullField builds a null field of the given type.
func NewNullField(t TypeID) Field { return Field{Type: t, Null: true} }

// serializedSize returns the number of bytes Field occupies in a Row's
// payload area for a column of the given declared char length. Null
// fields occupy zero bytes — their presence is recorded only in the Row's
// null bitmap.
func (f Field) serializedSize(charLen uint32) uint32 {
	if f.Null {
		return 0
	}
	switch f.Type {
	case TypeInt, TypeFloat:
		return 4
	case TypeChar:
		return charLen
	default:
		return 0
	}
}

// encode appends f's payload bytes (nothing, for a null field) to buf,
// padding/truncating CHAR values to exactly charLen bytes.
func (f Field) encode(buf []byte, charLen uint32) {
	if f.Null {
		return
	}
	switch f.Type {
	case TypeInt:
		binary.LittleEndian.PutUint32(buf, uint32(f.Int))
	case TypeFloat:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f.Flt))
	case TypeChar:
		n := copy(buf, f.Str)
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
	}
}

// decodeField reads one field of type t (charLen bytes if t is TypeChar)
// from buf. isNull comes from the Row's null bitmap, decoded by the caller.
func decodeField(buf []byte, t TypeID, charLen uint32, isNull bool) (Field, uint32, error) {
	if isNull {
		return Field{Type: t, Null: true}, 0, nil
	}
	switch t {
	case TypeInt:
		if len(buf) < 4 {
			return Field{}, 0, fmt.Errorf("record: truncated int field")
		}
		return Field{Type: TypeInt, Int: int32(binary.LittleEndian.Uint32(buf))}, 4, nil
	case TypeFloat:
		if len(buf) < 4 {
			return Field{}, 0, fmt.Errorf("record: truncated float field")
		}
		bits := binary.LittleEndian.Uint32(buf)
		return Field{Type: TypeFloat, Flt: math.Float32frombits(bits)}, 4, nil
	case TypeChar:
		if uint32(len(buf)) < charLen {
			return Field{}, 0, fmt.Errorf("record: truncated char field")
		}
		raw := buf[:charLen]
		n := 0
		for n < len(raw) && raw[n] != 0 {
			n++
		}
		return Field{Type: TypeChar, Str: string(raw[:n])}, charLen, nil
	default:
		return Field{}, 0, fmt.Errorf("record: unknown field type %d", t)
	}
}
