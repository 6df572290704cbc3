package engine

import (
	"path/filepath"
	"testing"

	"github.com/Zhouua/minisql/internal/record"
)

func TestOpenCreatesEmptyCatalogOnFreshFile(t *testing.T) {
	db, err := Open(Options{Path: filepath.Join(t.TempDir(), "fresh.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if len(db.Catalog.ListTables()) != 0 {
		t.Fatalf("ListTables on a fresh db = %v, want empty", db.Catalog.ListTables())
	}
}

func TestCreateInsertCloseReopenSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round-trip.db")
	schema := record.NewSchema([]record.Column{
		record.NewColumn("id", record.TypeInt, 0, false, true),
		record.NewCharColumn("name", 24, 1, false, false),
	}, false)

	db, err := Open(Options{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	meta, err := db.Catalog.CreateTable("users", schema)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	h := db.Catalog.OpenTableHeap(meta)
	rid, err := h.Insert(record.NewRow([]record.Field{
		record.NewIntField(7), record.NewCharField("grace"),
	}))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := Open(Options{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	meta2, err := db2.Catalog.GetTable("users")
	if err != nil {
		t.Fatalf("GetTable after reopen: %v", err)
	}
	h2 := db2.Catalog.OpenTableHeap(meta2)
	row, err := h2.Get(rid)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if row.Field(0).Int != 7 || row.Field(1).Str != "grace" {
		t.Fatalf("row after reopen = %+v", row)
	}
}
