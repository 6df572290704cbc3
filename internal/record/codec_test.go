package record

import "testing"

func testSchema() *Schema {
	return NewSchema([]Column{
		NewColumn("id", TypeInt, 0, false, true),
		NewCharColumn("name", 16, 1, true, false),
		NewColumn("score", TypeFloat, 2, true, false),
	}, false)
}

func TestColumnEncodeDecodeRoundTrip(t *testing.T) {
	c := NewCharColumn("label", 8, 3, true, false)
	buf := c.Encode(nil)
	got, n, err := DecodeColumn(buf)
	if err != nil {
		t.Fatalf("DecodeColumn: %v", err)
	}
	if n != uint32(len(buf)) {
		t.Fatalf("DecodeColumn consumed %d bytes, want %d", n, len(buf))
	}
	if got != c {
		t.Fatalf("DecodeColumn = %+v, want %+v", got, c)
	}
}

func TestFixedWidthColumnHasNoCharLengthOnWire(t *testing.T) {
	c := NewColumn("id", TypeInt, 0, false, true)
	if got, want := c.SerializedSize(), uint32(4+4+len("id")+1+4+1+1); got != want {
		t.Fatalf("SerializedSize() = %d, want %d (no char_len field for non-CHAR columns)", got, want)
	}
}

func TestSchemaEncodeDecodeRoundTrip(t *testing.T) {
	s := testSchema()
	buf := s.Encode(nil)
	got, n, err := DecodeSchema(buf)
	if err != nil {
		t.Fatalf("DecodeSchema: %v", err)
	}
	if n != uint32(len(buf)) {
		t.Fatalf("DecodeSchema consumed %d bytes, want %d", n, len(buf))
	}
	if len(got.Columns) != len(s.Columns) {
		t.Fatalf("got %d columns, want %d", len(got.Columns), len(s.Columns))
	}
	for i := range s.Columns {
		if got.Columns[i] != s.Columns[i] {
			t.Fatalf("column %d = %+v, want %+v", i, got.Columns[i], s.Columns[i])
		}
	}
}

func TestRowEncodeDecodeRoundTripWithNulls(t *testing.T) {
	schema := testSchema()
	row := NewRow([]Field{
		NewIntField(42),
		NewNullField(TypeChar),
		NewFloatField(3.5),
	})

	buf, err := row.Encode(schema)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, n, err := DecodeRow(buf, schema)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if n != uint32(len(buf)) {
		t.Fatalf("DecodeRow consumed %d bytes, want %d", n, len(buf))
	}
	if got.Field(0).Int != 42 {
		t.Fatalf("field 0 = %d, want 42", got.Field(0).Int)
	}
	if !got.Field(1).Null {
		t.Fatal("field 1 should be null")
	}
	if got.Field(2).Flt != 3.5 {
		t.Fatalf("field 2 = %v, want 3.5", got.Field(2).Flt)
	}
}

func TestRowSerializedSizeMatchesEncodedLength(t *testing.T) {
	schema := testSchema()
	row := NewRow([]Field{NewIntField(1), NewCharField("ada"), NewNullField(TypeFloat)})

	size, err := row.SerializedSize(schema)
	if err != nil {
		t.Fatalf("SerializedSize: %v", err)
	}
	buf, err := row.Encode(schema)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if uint32(len(buf)) != size {
		t.Fatalf("Encode produced %d bytes, SerializedSize said %d", len(buf), size)
	}
}

func TestGetKeyFromRowProjectsNamedColumns(t *testing.T) {
	schema := testSchema()
	keySchema := NewSchema([]Column{NewColumn("id", TypeInt, 0, false, true)}, false)
	row := NewRow([]Field{NewIntField(7), NewCharField("x"), NewFloatField(1)})

	key, err := GetKeyFromRow(schema, keySchema, row)
	if err != nil {
		t.Fatalf("GetKeyFromRow: %v", err)
	}
	if key.FieldCount() != 1 || key.Field(0).Int != 7 {
		t.Fatalf("key row = %+v, want single int field 7", key)
	}
}

func TestCharFieldTruncatesAtDeclaredLength(t *testing.T) {
	schema := NewSchema([]Column{NewCharColumn("s", 4, 0, false, false)}, false)
	row := NewRow([]Field{NewCharField("hello")})
	buf, err := row.Encode(schema)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := DecodeRow(buf, schema)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if got.Field(0).Str != "hell" {
		t.Fatalf("decoded char field = %q, want %q (truncated to declared length)", got.Field(0).Str, "hell")
	}
}
