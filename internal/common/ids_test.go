package common

import "testing"

func TestRowIDRoundTrip(t *testing.T) {
	cases := []struct {
		page PageID
		slot uint32
	}{
		{0, 0},
		{1, 41},
		{12345, 999},
	}
	for _, c := range cases {
		rid := NewRowID(c.page, c.slot)
		if got := rid.PageID(); got != c.page {
			t.Errorf("NewRowID(%d,%d).PageID() = %d, want %d", c.page, c.slot, got, c.page)
		}
		if got := rid.Slot(); got != c.slot {
			t.Errorf("NewRowID(%d,%d).Slot() = %d, want %d", c.page, c.slot, got, c.slot)
		}
		if !rid.Valid() {
			t.Errorf("NewRowID(%d,%d) should be valid", c.page, c.slot)
		}
	}
}

func TestInvalidRowID(t *testing.T) {
	if InvalidRowID.Valid() {
		t.Fatal("InvalidRowID should not be valid")
	}
	if InvalidRowID.PageID() != InvalidPageID {
		t.Fatalf("InvalidRowID.PageID() = %d, want %d", InvalidRowID.PageID(), InvalidPageID)
	}
}
