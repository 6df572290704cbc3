package record

import (
	"encoding/binary"
	"fmt"
)

// Row is a tuple of Fields in schema-column order. It does not carry a
// RowID: the table heap returns the RowID from Insert separately.
type Row struct {
	Fields []Field
}

// NewRow builds a Row from already-constructed fields.
func NewRow(fields []Field) Row { return Row{Fields: fields} }

// FieldCount returns the number of fields.
func (r Row) FieldCount() int { return len(r.Fields) }

// Field returns field i.
func (r Row) Field(i int) Field { return r.Fields[i] }

func nullBitmapSize(n int) int { return (n + 7) / 8 }

// SerializedSize returns the number of bytes Row occupies when encoded
// against schema. Encoding is schema-driven: only schema knows each
// column's declared CHAR length.
func (r Row) SerializedSize(schema *Schema) (uint32, error) {
	if len(r.Fields) != len(schema.Columns) {
		return 0, fmt.Errorf("record: row has %d fields, schema has %d columns", len(r.Fields), len(schema.Columns))
	}
	if len(r.Fields) == 0 {
		return 4, nil
	}
	size := uint32(4) + uint32(nullBitmapSize(len(r.Fields)))
	for i, f := range r.Fields {
		size += f.serializedSize(schema.Columns[i].Len)
	}
	return size, nil
}

// Encode serializes r against schema: field count, a null bitmap (one bit
// per field, LSB-first within each byte), then each non-null field's raw
// bytes in column order.
func (r Row) Encode(schema *Schema) ([]byte, error) {
	if len(r.Fields) != len(schema.Columns) {
		return nil, fmt.Errorf("record: row has %d fields, schema has %d columns", len(r.Fields), len(schema.Columns))
	}

	size, err := r.SerializedSize(schema)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Fields)))
	off += 4
	if len(r.Fields) == 0 {
		return buf, nil
	}

	bitmapOff := off
	bitmapLen := nullBitmapSize(len(r.Fields))
	off += bitmapLen
	for i, f := range r.Fields {
		if f.Null {
			buf[bitmapOff+i/8] |= 1 << uint(i%8)
		}
	}

	for i, f := range r.Fields {
		n := f.serializedSize(schema.Columns[i].Len)
		f.encode(buf[off:off+int(n)], schema.Columns[i].Len)
		off += int(n)
	}

	return buf, nil
}

// DecodeRow reads a Row from buf, interpreting field types and CHAR
// lengths from schema.
func DecodeRow(buf []byte, schema *Schema) (Row, uint32, error) {
	if len(buf) < 4 {
		return Row{}, 0, fmt.Errorf("record: truncated row field count")
	}
	off := uint32(0)
	fieldCount := binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if fieldCount == 0 {
		return Row{}, off, nil
	}
	if int(fieldCount) != len(schema.Columns) {
		return Row{}, 0, fmt.Errorf("record: row field count %d does not match schema column count %d", fieldCount, len(schema.Columns))
	}

	bitmapLen := uint32(nullBitmapSize(int(fieldCount)))
	if uint32(len(buf)) < off+bitmapLen {
		return Row{}, 0, fmt.Errorf("record: truncated row null bitmap")
	}
	bitmap := buf[off : off+bitmapLen]
	off += bitmapLen

	fields := make([]Field, fieldCount)
	for i := uint32(0); i < fieldCount; i++ {
		isNull := bitmap[i/8]&(1<<uint(i%8)) != 0
		col := schema.Columns[i]
		f, n, err := decodeField(buf[off:], col.Type, col.Len, isNull)
		if err != nil {
			return Row{}, 0, fmt.Errorf("record: decode field %d: %w", i, err)
		}
		fields[i] = f
		off += n
	}

	return Row{Fields: fields}, off, nil
}

// GetKeyFromRow projects the fields named by keySchema's columns, in
// keySchema's order, out of r (which must conform to schema).
func GetKeyFromRow(schema, keySchema *Schema, r Row) (Row, error) {
	fields := make([]Field, 0, len(keySchema.Columns))
	for _, kc := range keySchema.Columns {
		idx, err := schema.ColumnIndex(kc.Name)
		if err != nil {
			return Row{}, err
		}
		fields = append(fields, r.Fields[idx])
	}
	return Row{Fields: fields}, nil
}
