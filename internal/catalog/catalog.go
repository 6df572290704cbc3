// Package catalog tracks which tables exist, their schemas, and where
// their heaps begin — the system catalog described in spec.md §4.8. The
// catalog is itself stored as an ordinary table heap of "managed" rows
// (tinySQL's pager.Catalog names the same idea a "system catalog B+Tree";
// here it is a table heap instead, matching this engine's simpler,
// page-linked-list storage model) so it reuses the record codec and
// table heap machinery rather than inventing a second on-disk format.
package catalog

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/Zhouua/minisql/internal/buffer"
	"github.com/Zhouua/minisql/internal/common"
	"github.com/Zhouua/minisql/internal/heap"
	"github.com/Zhouua/minisql/internal/record"
)

// catalogFirstPageID is the logical page the catalog's own heap begins at.
// It is not an arbitrary convention: on a freshly created file the very
// first AllocatePage call is guaranteed to return logical page 0, and the
// catalog heap is always the first thing created, so this id is
// deterministic without needing a separate bootstrap record.
const catalogFirstPageID common.PageID = 0

const maxSchemaBytes = common.PageSize - 4

// catalogKind discriminates a catalog row as describing a table or an
// index — spec.md §3/§4.8 track both `table_id → meta_page_id` and
// `index_id → meta_page_id` in the same catalog page, each with its own
// next-id generator; here both kinds share one row heap instead, told
// apart by this column.
type catalogKind int32

const (
	catalogKindTable catalogKind = 0
	catalogKindIndex catalogKind = 1
)

func catalogRowSchema() *record.Schema {
	return record.NewSchema([]record.Column{
		record.NewCharColumn("name", 64, 0, false, true),
		record.NewColumn("kind", record.TypeInt, 1, false, false),
		record.NewColumn("id", record.TypeInt, 2, false, true),
		record.NewColumn("first_page_id", record.TypeInt, 3, false, false),
		record.NewColumn("schema_page_id", record.TypeInt, 4, false, false),
		record.NewColumn("owner_table_id", record.TypeInt, 5, false, false),
	}, true)
}

// TableMeta describes one table as tracked by the catalog.
type TableMeta struct {
	ID           uint32
	Name         string
	FirstPageID  common.PageID
	SchemaPageID common.PageID
	Schema       *record.Schema
	catalogRowID common.RowID
}

// IndexMeta describes one index as tracked by the catalog: its id, the
// table it belongs to, and where its key schema lives. Per spec.md §1's
// non-goal, the index's own data structure (B+Tree/hash) is external to
// this core — the catalog only ever holds this bookkeeping entry, never a
// working index.
type IndexMeta struct {
	ID              uint32
	Name            string
	TableID         uint32
	MetaPageID      common.PageID
	KeySchemaPageID common.PageID
	KeySchema       *record.Schema
	catalogRowID    common.RowID
}

// Catalog owns the mapping from table/index name to metadata, backed by a
// dedicated table heap of catalog rows plus one schema page per table or
// index key schema.
type Catalog struct {
	mu sync.RWMutex

	pool        *buffer.Pool
	catalogHeap *heap.TableHeap
	rowSchema   *record.Schema

	byName      map[string]*TableMeta
	byID        map[uint32]*TableMeta
	nextTableID uint32

	byIndexName map[string]*IndexMeta
	byIndexID   map[uint32]*IndexMeta
	nextIndexID uint32
}

// Create initializes a brand-new, empty catalog over pool. Call this only
// on a freshly created database file.
func Create(pool *buffer.Pool) (*Catalog, error) {
	rowSchema := catalogRowSchema()
	h, err := heap.NewTableHeap(pool, rowSchema)
	if err != nil {
		return nil, fmt.Errorf("catalog: create catalog heap: %w", err)
	}
	if h.FirstPageID() != catalogFirstPageID {
		return nil, fmt.Errorf("catalog: catalog heap did not land on page %d (got %d) — file was not empty", catalogFirstPageID, h.FirstPageID())
	}
	return &Catalog{
		pool:        pool,
		catalogHeap: h,
		rowSchema:   rowSchema,
		byName:      make(map[string]*TableMeta),
		byID:        make(map[uint32]*TableMeta),
		byIndexName: make(map[string]*IndexMeta),
		byIndexID:   make(map[uint32]*IndexMeta),
	}, nil
}

// Open reloads a catalog from an existing database file, rebuilding the
// in-memory table and index indexes by scanning every catalog row.
func Open(pool *buffer.Pool) (*Catalog, error) {
	rowSchema := catalogRowSchema()
	h := heap.OpenTableHeap(pool, rowSchema, catalogFirstPageID)
	c := &Catalog{
		pool:        pool,
		catalogHeap: h,
		rowSchema:   rowSchema,
		byName:      make(map[string]*TableMeta),
		byID:        make(map[uint32]*TableMeta),
		byIndexName: make(map[string]*IndexMeta),
		byIndexID:   make(map[uint32]*IndexMeta),
	}

	it, err := h.Begin()
	if err != nil {
		return nil, fmt.Errorf("catalog: begin scan: %w", err)
	}
	for it.Valid() {
		row, err := it.Row()
		if err != nil {
			return nil, fmt.Errorf("catalog: read catalog row: %w", err)
		}
		rid := it.RowID()
		kind, err := catalogRowKind(row)
		if err != nil {
			return nil, err
		}

		switch kind {
		case catalogKindTable:
			meta, err := tableMetaFromRow(row, rid)
			if err != nil {
				return nil, err
			}
			schema, err := readSchemaPage(pool, meta.SchemaPageID)
			if err != nil {
				return nil, fmt.Errorf("catalog: read schema for table %q: %w", meta.Name, err)
			}
			meta.Schema = schema
			c.byName[meta.Name] = meta
			c.byID[meta.ID] = meta
			if meta.ID >= c.nextTableID {
				c.nextTableID = meta.ID + 1
			}
		case catalogKindIndex:
			meta, err := indexMetaFromRow(row, rid)
			if err != nil {
				return nil, err
			}
			keySchema, err := readSchemaPage(pool, meta.KeySchemaPageID)
			if err != nil {
				return nil, fmt.Errorf("catalog: read key schema for index %q: %w", meta.Name, err)
			}
			meta.KeySchema = keySchema
			c.byIndexName[meta.Name] = meta
			c.byIndexID[meta.ID] = meta
			if meta.ID >= c.nextIndexID {
				c.nextIndexID = meta.ID + 1
			}
		}

		if _, err := it.Next(); err != nil {
			return nil, fmt.Errorf("catalog: advance scan: %w", err)
		}
	}
	return c, nil
}

func catalogRowKind(row record.Row) (catalogKind, error) {
	if row.FieldCount() != 6 {
		return 0, fmt.Errorf("catalog: malformed catalog row")
	}
	return catalogKind(row.Field(1).Int), nil
}

func tableMetaFromRow(row record.Row, rid common.RowID) (*TableMeta, error) {
	return &TableMeta{
		Name:         row.Field(0).Str,
		ID:           uint32(row.Field(2).Int),
		FirstPageID:  common.PageID(row.Field(3).Int),
		SchemaPageID: common.PageID(row.Field(4).Int),
		catalogRowID: rid,
	}, nil
}

func indexMetaFromRow(row record.Row, rid common.RowID) (*IndexMeta, error) {
	return &IndexMeta{
		Name:            row.Field(0).Str,
		ID:              uint32(row.Field(2).Int),
		MetaPageID:      common.PageID(row.Field(3).Int),
		KeySchemaPageID: common.PageID(row.Field(4).Int),
		TableID:         uint32(row.Field(5).Int),
		catalogRowID:    rid,
	}, nil
}

func writeSchemaPage(pool *buffer.Pool, schema *record.Schema) (common.PageID, error) {
	if schema.SerializedSize() > maxSchemaBytes {
		return common.InvalidPageID, fmt.Errorf("catalog: schema too large for one page (%d bytes)", schema.SerializedSize())
	}
	id, buf, err := pool.NewPage()
	if err != nil {
		return common.InvalidPageID, fmt.Errorf("catalog: allocate schema page: %w", err)
	}
	encoded := schema.Encode(nil)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(encoded)))
	copy(buf[4:], encoded)
	pool.UnpinPage(id, true)
	return id, nil
}

func readSchemaPage(pool *buffer.Pool, id common.PageID) (*record.Schema, error) {
	buf, err := pool.FetchPage(id)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch schema page %d: %w", id, err)
	}
	defer pool.UnpinPage(id, false)

	n := binary.LittleEndian.Uint32(buf[0:4])
	if int(n) > len(buf)-4 {
		return nil, fmt.Errorf("catalog: schema page %d has corrupt length %d", id, n)
	}
	schema, _, err := record.DecodeSchema(buf[4 : 4+n])
	if err != nil {
		return nil, fmt.Errorf("catalog: decode schema page %d: %w", id, err)
	}
	return schema, nil
}

// CreateTable registers a new table named name with the given schema,
// allocating its schema page and the first page of its row heap.
func (c *Catalog) CreateTable(name string, schema *record.Schema) (*TableMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byName[name]; exists {
		return nil, fmt.Errorf("catalog: table %q: %w", name, common.ErrTableAlreadyExist)
	}

	schemaPageID, err := writeSchemaPage(c.pool, schema)
	if err != nil {
		return nil, err
	}

	h, err := heap.NewTableHeap(c.pool, schema)
	if err != nil {
		return nil, fmt.Errorf("catalog: create table heap for %q: %w", name, err)
	}

	id := c.nextTableID
	c.nextTableID++

	row := record.NewRow([]record.Field{
		record.NewCharField(name),
		record.NewIntField(int32(catalogKindTable)),
		record.NewIntField(int32(id)),
		record.NewIntField(int32(h.FirstPageID())),
		record.NewIntField(int32(schemaPageID)),
		record.NewIntField(-1),
	})
	rid, err := c.catalogHeap.Insert(row)
	if err != nil {
		return nil, fmt.Errorf("catalog: record table %q: %w", name, err)
	}

	meta := &TableMeta{
		ID:           id,
		Name:         name,
		FirstPageID:  h.FirstPageID(),
		SchemaPageID: schemaPageID,
		Schema:       schema,
		catalogRowID: rid,
	}
	c.byName[name] = meta
	c.byID[id] = meta
	return meta, nil
}

// DropTable removes a table's catalog entry, its row heap, and its schema
// page.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("catalog: table %q: %w", name, common.ErrTableNotExist)
	}

	h := heap.OpenTableHeap(c.pool, meta.Schema, meta.FirstPageID)
	if err := h.DeleteTable(); err != nil {
		return fmt.Errorf("catalog: delete heap for table %q: %w", name, err)
	}
	if err := c.pool.DeletePage(meta.SchemaPageID); err != nil {
		return fmt.Errorf("catalog: delete schema page for table %q: %w", name, err)
	}
	if err := c.catalogHeap.ApplyDelete(meta.catalogRowID); err != nil {
		return fmt.Errorf("catalog: remove catalog row for table %q: %w", name, err)
	}

	delete(c.byName, name)
	delete(c.byID, meta.ID)
	return nil
}

// GetTable returns the named table's metadata.
func (c *Catalog) GetTable(name string) (*TableMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("catalog: table %q: %w", name, common.ErrTableNotExist)
	}
	return meta, nil
}

// ListTables returns every registered table's metadata, in no particular
// order.
func (c *Catalog) ListTables() []*TableMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*TableMeta, 0, len(c.byName))
	for _, m := range c.byName {
		out = append(out, m)
	}
	return out
}

// OpenTableHeap returns a heap.TableHeap for meta, ready for Insert/Get/
// Update/Delete/iteration.
func (c *Catalog) OpenTableHeap(meta *TableMeta) *heap.TableHeap {
	return heap.OpenTableHeap(c.pool, meta.Schema, meta.FirstPageID)
}

// CreateIndex registers a new index named name over tableName's key schema.
// Per spec.md §1's non-goal, this records only the index's bookkeeping
// entry (id, owning table, key schema) — building and maintaining the
// index's own data structure is out of scope for this core.
func (c *Catalog) CreateIndex(name, tableName string, keySchema *record.Schema) (*IndexMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byIndexName[name]; exists {
		return nil, fmt.Errorf("catalog: index %q: %w", name, common.ErrIndexAlreadyExist)
	}
	table, ok := c.byName[tableName]
	if !ok {
		return nil, fmt.Errorf("catalog: index %q: owning table %q: %w", name, tableName, common.ErrTableNotExist)
	}

	keySchemaPageID, err := writeSchemaPage(c.pool, keySchema)
	if err != nil {
		return nil, err
	}

	id := c.nextIndexID
	c.nextIndexID++

	row := record.NewRow([]record.Field{
		record.NewCharField(name),
		record.NewIntField(int32(catalogKindIndex)),
		record.NewIntField(int32(id)),
		record.NewIntField(int32(keySchemaPageID)),
		record.NewIntField(int32(keySchemaPageID)),
		record.NewIntField(int32(table.ID)),
	})
	rid, err := c.catalogHeap.Insert(row)
	if err != nil {
		return nil, fmt.Errorf("catalog: record index %q: %w", name, err)
	}

	meta := &IndexMeta{
		ID:              id,
		Name:            name,
		TableID:         table.ID,
		MetaPageID:      keySchemaPageID,
		KeySchemaPageID: keySchemaPageID,
		KeySchema:       keySchema,
		catalogRowID:    rid,
	}
	c.byIndexName[name] = meta
	c.byIndexID[id] = meta
	return meta, nil
}

// DropIndex removes an index's catalog entry and its key schema page.
func (c *Catalog) DropIndex(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta, ok := c.byIndexName[name]
	if !ok {
		return fmt.Errorf("catalog: index %q: %w", name, common.ErrIndexNotFound)
	}

	if err := c.pool.DeletePage(meta.KeySchemaPageID); err != nil {
		return fmt.Errorf("catalog: delete key schema page for index %q: %w", name, err)
	}
	if err := c.catalogHeap.ApplyDelete(meta.catalogRowID); err != nil {
		return fmt.Errorf("catalog: remove catalog row for index %q: %w", name, err)
	}

	delete(c.byIndexName, name)
	delete(c.byIndexID, meta.ID)
	return nil
}

// GetIndex returns the named index's metadata.
func (c *Catalog) GetIndex(name string) (*IndexMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.byIndexName[name]
	if !ok {
		return nil, fmt.Errorf("catalog: index %q: %w", name, common.ErrIndexNotFound)
	}
	return meta, nil
}

// ListIndexes returns every registered index's metadata, in no particular
// order.
func (c *Catalog) ListIndexes() []*IndexMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*IndexMeta, 0, len(c.byIndexName))
	for _, m := range c.byIndexName {
		out = append(out, m)
	}
	return out
}
