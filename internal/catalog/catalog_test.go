package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Zhouua/minisql/internal/buffer"
	"github.com/Zhouua/minisql/internal/common"
	"github.com/Zhouua/minisql/internal/disk"
	"github.com/Zhouua/minisql/internal/record"
)

func newTestPool(t *testing.T, path string) *buffer.Pool {
	t.Helper()
	dm, err := disk.Open(disk.Options{Path: path})
	if err != nil {
		t.Fatalf("disk.Open: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return buffer.NewPool(dm, 16, nil, nil)
}

func usersSchema() *record.Schema {
	return record.NewSchema([]record.Column{
		record.NewColumn("id", record.TypeInt, 0, false, true),
		record.NewCharColumn("name", 24, 1, false, false),
	}, false)
}

func TestCreateLandsCatalogHeapOnPageZero(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, err := Create(pool)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.catalogHeap.FirstPageID() != 0 {
		t.Fatalf("catalog heap first page = %d, want 0", c.catalogHeap.FirstPageID())
	}
}

func TestCreateTableAndGetTable(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, err := Create(pool)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	meta, err := c.CreateTable("users", usersSchema())
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if meta.Name != "users" || meta.ID != 0 {
		t.Fatalf("meta = %+v", meta)
	}

	got, err := c.GetTable("users")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if got.FirstPageID != meta.FirstPageID {
		t.Fatalf("GetTable FirstPageID = %d, want %d", got.FirstPageID, meta.FirstPageID)
	}
}

func TestCreateTableRejectsDuplicateName(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	if _, err := c.CreateTable("users", usersSchema()); err != nil {
		t.Fatalf("first CreateTable: %v", err)
	}
	_, err := c.CreateTable("users", usersSchema())
	if !errors.Is(err, common.ErrTableAlreadyExist) {
		t.Fatalf("second CreateTable = %v, want ErrTableAlreadyExist", err)
	}
}

func TestGetTableUnknownNameFails(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	_, err := c.GetTable("ghost")
	if !errors.Is(err, common.ErrTableNotExist) {
		t.Fatalf("GetTable(\"ghost\") = %v, want ErrTableNotExist", err)
	}
}

func TestDropTableRemovesEntryAndRejectsSecondDrop(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	c.CreateTable("users", usersSchema())

	if err := c.DropTable("users"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if _, err := c.GetTable("users"); !errors.Is(err, common.ErrTableNotExist) {
		t.Fatalf("GetTable after drop = %v, want ErrTableNotExist", err)
	}
	if err := c.DropTable("users"); !errors.Is(err, common.ErrTableNotExist) {
		t.Fatalf("second DropTable = %v, want ErrTableNotExist", err)
	}
}

func TestListTablesReturnsEveryCreatedTable(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	c.CreateTable("users", usersSchema())
	c.CreateTable("orders", usersSchema())

	names := map[string]bool{}
	for _, m := range c.ListTables() {
		names[m.Name] = true
	}
	if !names["users"] || !names["orders"] || len(names) != 2 {
		t.Fatalf("ListTables = %v", names)
	}
}

func idKeySchema() *record.Schema {
	return record.NewSchema([]record.Column{
		record.NewColumn("id", record.TypeInt, 0, false, true),
	}, false)
}

func TestCreateIndexAndGetIndex(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	table, err := c.CreateTable("users", usersSchema())
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	meta, err := c.CreateIndex("users_id_idx", "users", idKeySchema())
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if meta.Name != "users_id_idx" || meta.TableID != table.ID {
		t.Fatalf("meta = %+v", meta)
	}

	got, err := c.GetIndex("users_id_idx")
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	if got.KeySchemaPageID != meta.KeySchemaPageID || len(got.KeySchema.Columns) != 1 {
		t.Fatalf("GetIndex = %+v", got)
	}
}

func TestCreateIndexRejectsDuplicateNameAndUnknownTable(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	c.CreateTable("users", usersSchema())
	if _, err := c.CreateIndex("users_id_idx", "users", idKeySchema()); err != nil {
		t.Fatalf("first CreateIndex: %v", err)
	}

	if _, err := c.CreateIndex("users_id_idx", "users", idKeySchema()); !errors.Is(err, common.ErrIndexAlreadyExist) {
		t.Fatalf("duplicate CreateIndex = %v, want ErrIndexAlreadyExist", err)
	}
	if _, err := c.CreateIndex("ghost_idx", "ghost", idKeySchema()); !errors.Is(err, common.ErrTableNotExist) {
		t.Fatalf("CreateIndex on unknown table = %v, want ErrTableNotExist", err)
	}
}

func TestGetIndexUnknownNameFails(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	if _, err := c.GetIndex("ghost_idx"); !errors.Is(err, common.ErrIndexNotFound) {
		t.Fatalf("GetIndex(\"ghost_idx\") = %v, want ErrIndexNotFound", err)
	}
}

func TestDropIndexRemovesEntryAndRejectsSecondDrop(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	c.CreateTable("users", usersSchema())
	c.CreateIndex("users_id_idx", "users", idKeySchema())

	if err := c.DropIndex("users_id_idx"); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	if _, err := c.GetIndex("users_id_idx"); !errors.Is(err, common.ErrIndexNotFound) {
		t.Fatalf("GetIndex after drop = %v, want ErrIndexNotFound", err)
	}
	if err := c.DropIndex("users_id_idx"); !errors.Is(err, common.ErrIndexNotFound) {
		t.Fatalf("second DropIndex = %v, want ErrIndexNotFound", err)
	}
}

func TestListIndexesReturnsEveryCreatedIndex(t *testing.T) {
	pool := newTestPool(t, filepath.Join(t.TempDir(), "test.db"))
	c, _ := Create(pool)
	c.CreateTable("users", usersSchema())
	c.CreateIndex("users_id_idx", "users", idKeySchema())
	c.CreateIndex("users_name_idx", "users", idKeySchema())

	names := map[string]bool{}
	for _, m := range c.ListIndexes() {
		names[m.Name] = true
	}
	if !names["users_id_idx"] || !names["users_name_idx"] || len(names) != 2 {
		t.Fatalf("ListIndexes = %v", names)
	}
}

func TestOpenRebuildsIndexesAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	dm1, err := disk.Open(disk.Options{Path: path})
	if err != nil {
		t.Fatalf("disk.Open: %v", err)
	}
	pool1 := buffer.NewPool(dm1, 16, nil, nil)
	c1, err := Create(pool1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	table, err := c1.CreateTable("users", usersSchema())
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	idx, err := c1.CreateIndex("users_id_idx", "users", idKeySchema())
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := pool1.FlushAllPages(); err != nil {
		t.Fatalf("FlushAllPages: %v", err)
	}
	if err := dm1.Close(); err != nil {
		t.Fatalf("dm1.Close: %v", err)
	}

	dm2, err := disk.Open(disk.Options{Path: path})
	if err != nil {
		t.Fatalf("reopen disk.Open: %v", err)
	}
	t.Cleanup(func() { dm2.Close() })
	pool2 := buffer.NewPool(dm2, 16, nil, nil)
	c2, err := Open(pool2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, err := c2.GetIndex("users_id_idx")
	if err != nil {
		t.Fatalf("GetIndex after reopen: %v", err)
	}
	if got.TableID != table.ID || got.KeySchemaPageID != idx.KeySchemaPageID {
		t.Fatalf("reopened index meta = %+v", got)
	}
	if len(got.KeySchema.Columns) != 1 {
		t.Fatalf("reopened key schema has %d columns, want 1", len(got.KeySchema.Columns))
	}

	gotTable, err := c2.GetTable("users")
	if err != nil {
		t.Fatalf("GetTable after reopen: %v", err)
	}
	if gotTable.ID != table.ID {
		t.Fatalf("reopened table id = %d, want %d", gotTable.ID, table.ID)
	}
}

func TestOpenRebuildsCatalogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	dm1, err := disk.Open(disk.Options{Path: path})
	if err != nil {
		t.Fatalf("disk.Open: %v", err)
	}
	pool1 := buffer.NewPool(dm1, 16, nil, nil)
	c1, err := Create(pool1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	meta, err := c1.CreateTable("users", usersSchema())
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	h1 := c1.OpenTableHeap(meta)
	if _, err := h1.Insert(record.NewRow([]record.Field{
		record.NewIntField(1), record.NewCharField("ada"),
	})); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := pool1.FlushAllPages(); err != nil {
		t.Fatalf("FlushAllPages: %v", err)
	}
	if err := dm1.Close(); err != nil {
		t.Fatalf("dm1.Close: %v", err)
	}

	dm2, err := disk.Open(disk.Options{Path: path})
	if err != nil {
		t.Fatalf("reopen disk.Open: %v", err)
	}
	t.Cleanup(func() { dm2.Close() })
	pool2 := buffer.NewPool(dm2, 16, nil, nil)
	c2, err := Open(pool2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, err := c2.GetTable("users")
	if err != nil {
		t.Fatalf("GetTable after reopen: %v", err)
	}
	if got.FirstPageID != meta.FirstPageID || got.SchemaPageID != meta.SchemaPageID {
		t.Fatalf("reopened meta = %+v, want FirstPageID=%d SchemaPageID=%d", got, meta.FirstPageID, meta.SchemaPageID)
	}
	if len(got.Schema.Columns) != 2 {
		t.Fatalf("reopened schema has %d columns, want 2", len(got.Schema.Columns))
	}

	h2 := c2.OpenTableHeap(got)
	it, err := h2.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !it.Valid() {
		t.Fatal("reopened table heap should still contain the inserted row")
	}
	row, err := it.Row()
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if row.Field(0).Int != 1 || row.Field(1).Str != "ada" {
		t.Fatalf("reopened row = %+v", row)
	}
}
