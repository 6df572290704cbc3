// Package disk implements the disk manager: the layer that maps logical
// page numbers onto physical file offsets through a per-extent allocation
// bitmap, and performs page-granular I/O. It is the bottom of the storage
// core's dependency stack — nothing below it but the filesystem.
package disk

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/Zhouua/minisql/internal/common"
	"github.com/google/uuid"
)

// ErrFull is returned by AllocatePage when the file has used every extent
// slot the meta page can describe and every existing extent is full.
var ErrFull = errors.New("disk: file is full")

// Options configures a Manager.
type Options struct {
	// Path is the database file. Parent directories are created if missing.
	Path string
	// Logger receives structural-violation and I/O-error messages. Defaults
	// to log.Default() with a "disk: " prefix.
	Logger *log.Logger
}

// Manager owns one database file: its meta page, its extents, and every
// physical read/write against it. All exported methods are safe for
// concurrent use — a single mutex serializes I/O the way the original
// design's recursive lock does, by funnelling every public entry point
// through private, already-locked helpers instead of re-acquiring the lock.
type Manager struct {
	mu     sync.Mutex
	file   *os.File
	meta   *fileMeta
	logger *log.Logger
	closed bool
}

// Open opens db, creating it (and its parent directories) if it does not
// exist. A freshly created file gets a zeroed meta page with a new random
// instance id; an existing file has its meta page validated on read.
func Open(opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "disk: ", log.LstdFlags)
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("disk: create parent dirs: %w", err)
		}
	}

	f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("disk: cannot open file after attempting creation: %w", err)
	}

	m := &Manager{file: f, logger: logger}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat: %w", err)
	}

	if fi.Size() == 0 {
		m.meta = newFileMeta()
		if err := m.writePhysicalLocked(0, m.meta.encode()); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		buf := make([]byte, common.PageSize)
		if err := m.readPhysicalLocked(0, buf); err != nil {
			f.Close()
			return nil, err
		}
		meta, err := decodeFileMeta(buf)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("disk: %w", err)
		}
		m.meta = meta
	}

	return m, nil
}

// InstanceID returns the identifier stamped into the file on creation; it
// is stable across every subsequent Open of the same file.
func (m *Manager) InstanceID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta.instanceID
}

// NumAllocatedPages returns the total number of currently allocated pages.
func (m *Manager) NumAllocatedPages() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta.numAllocated
}

// NumExtents returns the number of extents the file has grown to.
func (m *Manager) NumExtents() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta.numExtents
}

// ── physical I/O ────────────────────────────────────────────────────────

// readPhysicalLocked reads exactly one physical page, zero-filling past EOF.
// Caller must hold m.mu.
func (m *Manager) readPhysicalLocked(physical common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		panic("disk: buffer is not one page long")
	}
	off := int64(physical) * common.PageSize
	n, err := m.file.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		m.logger.Printf("read physical page %d: %v", physical, err)
		return fmt.Errorf("disk: read physical page %d: %w", physical, err)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

// writePhysicalLocked writes exactly one physical page. Caller must hold m.mu.
func (m *Manager) writePhysicalLocked(physical common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		panic("disk: buffer is not one page long")
	}
	off := int64(physical) * common.PageSize
	if _, err := m.file.WriteAt(buf, off); err != nil {
		m.logger.Printf("write physical page %d: %v", physical, err)
		return fmt.Errorf("disk: write physical page %d: %w", physical, err)
	}
	return nil
}

// ── logical ↔ physical mapping ─────────────────────────────────────────

// mapPageID translates a logical page id to its physical page id. This is
// the single mapping function used end to end (spec.md §3): physical page
// 0 is the file meta page, and every extent of (1 + N) physical pages
// begins with a bitmap page followed by N data pages.
func mapPageID(logical common.PageID) common.PageID {
	n := common.PageID(common.BitsPerExtent)
	extent := logical / n
	offset := logical % n
	return 1 + extent*(n+1) + offset + 1
}

func extentBitmapPhysical(extent uint32) common.PageID {
	n := common.PageID(common.BitsPerExtent)
	return 1 + common.PageID(extent)*(n+1)
}

// ── allocation ──────────────────────────────────────────────────────────

// AllocatePage finds or creates room for a new data page and returns its
// logical id, or ErrFull if the file cannot grow further.
func (m *Manager) AllocatePage() (common.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	extent := m.meta.numExtents
	found := false
	for i := uint32(0); i < m.meta.numExtents; i++ {
		if m.meta.extentUsedPages[i] < common.BitsPerExtent {
			extent = i
			found = true
			break
		}
	}

	isNewExtent := !found
	if isNewExtent {
		if m.meta.numExtents >= MaxExtents {
			return common.InvalidPageID, ErrFull
		}
		zero := make([]byte, common.PageSize)
		if err := m.writePhysicalLocked(extentBitmapPhysical(extent), zero); err != nil {
			return common.InvalidPageID, err
		}
	}

	buf := make([]byte, common.PageSize)
	if err := m.readPhysicalLocked(extentBitmapPhysical(extent), buf); err != nil {
		return common.InvalidPageID, err
	}
	bitmap := WrapBitmapPage(buf)

	var offset uint32
	if !bitmap.Allocate(&offset) {
		// Shouldn't happen: we just picked an extent with room, or a fresh
		// one. Treat as a structural inconsistency rather than hide it.
		m.logger.Printf("extent %d reported free space but bitmap is full", extent)
		return common.InvalidPageID, fmt.Errorf("disk: %w", ErrFull)
	}
	if err := m.writePhysicalLocked(extentBitmapPhysical(extent), bitmap.Bytes()); err != nil {
		return common.InvalidPageID, err
	}

	m.meta.numAllocated++
	m.meta.extentUsedPages[extent]++
	if isNewExtent {
		m.meta.numExtents++
	}

	logical := common.PageID(extent)*common.PageID(common.BitsPerExtent) + common.PageID(offset)
	return logical, nil
}

// DeallocatePage frees a logical page. It is idempotent: deallocating an
// already-free page is not an error.
func (m *Manager) DeallocatePage(logical common.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	extent := uint32(logical) / common.BitsPerExtent
	offset := uint32(logical) % common.BitsPerExtent
	if extent >= m.meta.numExtents {
		return nil
	}

	buf := make([]byte, common.PageSize)
	if err := m.readPhysicalLocked(extentBitmapPhysical(extent), buf); err != nil {
		return err
	}
	bitmap := WrapBitmapPage(buf)
	if !bitmap.Deallocate(offset) {
		return nil
	}
	if err := m.writePhysicalLocked(extentBitmapPhysical(extent), bitmap.Bytes()); err != nil {
		return err
	}
	m.meta.numAllocated--
	m.meta.extentUsedPages[extent]--
	return nil
}

// IsPageFree reports whether a logical page is currently unallocated.
func (m *Manager) IsPageFree(logical common.PageID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	extent := uint32(logical) / common.BitsPerExtent
	offset := uint32(logical) % common.BitsPerExtent
	if extent >= m.meta.numExtents {
		return true, nil
	}
	buf := make([]byte, common.PageSize)
	if err := m.readPhysicalLocked(extentBitmapPhysical(extent), buf); err != nil {
		return false, err
	}
	return WrapBitmapPage(buf).IsFree(offset), nil
}

// ── page I/O ────────────────────────────────────────────────────────────

// ReadPage reads logical page id into buf, which must be common.PageSize long.
func (m *Manager) ReadPage(id common.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readPhysicalLocked(mapPageID(id), buf)
}

// WritePage writes buf, which must be common.PageSize long, to logical page id.
func (m *Manager) WritePage(id common.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writePhysicalLocked(mapPageID(id), buf)
}

// Close writes the meta page back and closes the file. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.writePhysicalLocked(0, m.meta.encode()); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
