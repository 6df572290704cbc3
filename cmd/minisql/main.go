// Command minisql is a small, flag-driven harness over the storage core:
// open (or create) a database file, define one table, insert rows given
// on the command line, and scan them back. It is deliberately not a SQL
// shell — parsing and query planning live above this engine's scope.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Zhouua/minisql/internal/engine"
	"github.com/Zhouua/minisql/internal/heap"
	"github.com/Zhouua/minisql/internal/record"
)

func main() {
	dbPath := flag.String("db", "minisql.db", "path to the database file")
	poolSize := flag.Int("pool-size", 32, "number of buffer pool frames")
	table := flag.String("table", "demo", "table to create/use")
	columnsFlag := flag.String("columns", "id:int,name:char32", "comma-separated col:type definitions, e.g. id:int,name:char32")
	insertFlag := flag.String("insert", "", "semicolon-separated rows to insert, each a comma-separated list of values in column order")
	scan := flag.Bool("scan", true, "scan and print every row after inserting")
	flag.Parse()

	logger := log.New(os.Stderr, "minisql: ", log.LstdFlags)

	db, err := engine.Open(engine.Options{Path: *dbPath, PoolSize: *poolSize, Logger: logger})
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Fatalf("close database: %v", err)
		}
	}()

	schema, err := parseSchema(*columnsFlag)
	if err != nil {
		logger.Fatalf("parse -columns: %v", err)
	}

	meta, err := db.Catalog.GetTable(*table)
	if err != nil {
		meta, err = db.Catalog.CreateTable(*table, schema)
		if err != nil {
			logger.Fatalf("create table %q: %v", *table, err)
		}
		fmt.Printf("created table %q (id=%d, first page=%d)\n", meta.Name, meta.ID, meta.FirstPageID)
	} else {
		fmt.Printf("using existing table %q (id=%d, first page=%d)\n", meta.Name, meta.ID, meta.FirstPageID)
	}

	tableHeap := db.Catalog.OpenTableHeap(meta)

	if *insertFlag != "" {
		for _, rowText := range strings.Split(*insertFlag, ";") {
			rowText = strings.TrimSpace(rowText)
			if rowText == "" {
				continue
			}
			row, err := parseRow(rowText, meta.Schema)
			if err != nil {
				logger.Fatalf("parse row %q: %v", rowText, err)
			}
			rid, err := tableHeap.Insert(row)
			if err != nil {
				logger.Fatalf("insert row %q: %v", rowText, err)
			}
			fmt.Printf("inserted %s\n", rid)
		}
	}

	if *scan {
		if err := scanTable(tableHeap, meta.Schema); err != nil {
			logger.Fatalf("scan table: %v", err)
		}
	}
}

func scanTable(h *heap.TableHeap, schema *record.Schema) error {
	it, err := h.Begin()
	if err != nil {
		return err
	}
	for it.Valid() {
		row, err := it.Row()
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", it.RowID(), formatRow(row, schema))
		if _, err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}

func formatRow(row record.Row, schema *record.Schema) string {
	parts := make([]string, row.FieldCount())
	for i := 0; i < row.FieldCount(); i++ {
		f := row.Field(i)
		if f.Null {
			parts[i] = schema.Columns[i].Name + "=NULL"
			continue
		}
		switch f.Type {
		case record.TypeInt:
			parts[i] = fmt.Sprintf("%s=%d", schema.Columns[i].Name, f.Int)
		case record.TypeFloat:
			parts[i] = fmt.Sprintf("%s=%g", schema.Columns[i].Name, f.Flt)
		case record.TypeChar:
			parts[i] = fmt.Sprintf("%s=%q", schema.Columns[i].Name, f.Str)
		}
	}
	return strings.Join(parts, ", ")
}

// parseSchema turns "id:int,name:char32" into a *record.Schema.
func parseSchema(spec string) (*record.Schema, error) {
	defs := strings.Split(spec, ",")
	cols := make([]record.Column, 0, len(defs))
	for i, def := range defs {
		def = strings.TrimSpace(def)
		parts := strings.SplitN(def, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad column definition %q (want name:type)", def)
		}
		name, typeSpec := parts[0], strings.ToLower(parts[1])
		switch {
		case typeSpec == "int":
			cols = append(cols, record.NewColumn(name, record.TypeInt, uint32(i), true, false))
		case typeSpec == "float":
			cols = append(cols, record.NewColumn(name, record.TypeFloat, uint32(i), true, false))
		case strings.HasPrefix(typeSpec, "char"):
			n, err := strconv.Atoi(strings.TrimPrefix(typeSpec, "char"))
			if err != nil {
				return nil, fmt.Errorf("bad char length in %q: %w", def, err)
			}
			cols = append(cols, record.NewCharColumn(name, uint32(n), uint32(i), true, false))
		default:
			return nil, fmt.Errorf("unknown column type %q", typeSpec)
		}
	}
	return record.NewSchema(cols, false), nil
}

// parseRow turns "1,Ada" into a record.Row conforming to schema, using "-"
// as the null marker for any field.
func parseRow(text string, schema *record.Schema) (record.Row, error) {
	values := strings.Split(text, ",")
	if len(values) != len(schema.Columns) {
		return record.Row{}, fmt.Errorf("expected %d values, got %d", len(schema.Columns), len(values))
	}
	fields := make([]record.Field, len(values))
	for i, raw := range values {
		raw = strings.TrimSpace(raw)
		col := schema.Columns[i]
		if raw == "-" {
			fields[i] = record.NewNullField(col.Type)
			continue
		}
		switch col.Type {
		case record.TypeInt:
			n, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return record.Row{}, fmt.Errorf("column %q: %w", col.Name, err)
			}
			fields[i] = record.NewIntField(int32(n))
		case record.TypeFloat:
			f, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return record.Row{}, fmt.Errorf("column %q: %w", col.Name, err)
			}
			fields[i] = record.NewFloatField(float32(f))
		case record.TypeChar:
			fields[i] = record.NewCharField(raw)
		}
	}
	return record.NewRow(fields), nil
}
