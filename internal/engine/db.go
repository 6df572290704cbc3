// Package engine wires the storage core's layers together into one
// opened database: disk manager, buffer pool, and catalog. It is the
// thinnest possible façade — no SQL, no query planning — matching
// spec.md §6's instruction that callers above this layer (a parser, an
// executor) are out of scope.
package engine

import (
	"fmt"
	"log"

	"github.com/Zhouua/minisql/internal/buffer"
	"github.com/Zhouua/minisql/internal/catalog"
	"github.com/Zhouua/minisql/internal/disk"
)

// Options configures an opened database.
type Options struct {
	// Path is the database file passed to disk.Open.
	Path string
	// PoolSize is the number of frames in the buffer pool.
	PoolSize int
	// Logger is shared by every layer; defaults to log.Default() per layer
	// with its own prefix if nil.
	Logger *log.Logger
}

// DB is one opened minisql database file.
type DB struct {
	Disk    *disk.Manager
	Pool    *buffer.Pool
	Catalog *catalog.Catalog
}

// Open opens (creating if necessary) the database file at opts.Path and
// brings up its buffer pool and catalog.
func Open(opts Options) (*DB, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 32
	}

	dm, err := disk.Open(disk.Options{Path: opts.Path, Logger: opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("engine: open disk manager: %w", err)
	}

	isNew := dm.NumAllocatedPages() == 0 && dm.NumExtents() == 0
	pool := buffer.NewPool(dm, opts.PoolSize, nil, opts.Logger)

	var cat *catalog.Catalog
	if isNew {
		cat, err = catalog.Create(pool)
	} else {
		cat, err = catalog.Open(pool)
	}
	if err != nil {
		dm.Close()
		return nil, fmt.Errorf("engine: open catalog: %w", err)
	}

	return &DB{Disk: dm, Pool: pool, Catalog: cat}, nil
}

// Close flushes every buffered page and closes the underlying file.
func (db *DB) Close() error {
	if err := db.Pool.FlushAllPages(); err != nil {
		return fmt.Errorf("engine: flush pages: %w", err)
	}
	if err := db.Disk.Close(); err != nil {
		return fmt.Errorf("engine: close disk manager: %w", err)
	}
	return nil
}
