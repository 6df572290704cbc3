package disk

import (
	"encoding/binary"
	"fmt"

	"github.com/Zhouua/minisql/internal/common"
	"github.com/google/uuid"
)

// MetaMagic identifies a minisql database file at physical page 0.
const MetaMagic uint32 = 0x4d53514c // "MSQL"

const (
	metaMagicOff      = 0
	metaInstanceIDOff = metaMagicOff + 4
	metaNumExtentsOff = metaInstanceIDOff + 16
	metaNumAllocOff   = metaNumExtentsOff + 4
	metaExtentUsedOff = metaNumAllocOff + 4
)

// MaxExtents is the number of per-extent used-page counters that fit in the
// meta page alongside its fixed header fields.
const MaxExtents = (common.PageSize - metaExtentUsedOff) / 4

// fileMeta is the parsed contents of physical page 0: a magic tag, the
// number of extents currently in use, the total allocated page count, and
// a per-extent used-page count (spec.md §3 "Disk layout").
type fileMeta struct {
	instanceID      uuid.UUID
	numExtents      uint32
	numAllocated    uint32
	extentUsedPages [MaxExtents]uint32
}

func newFileMeta() *fileMeta {
	return &fileMeta{instanceID: uuid.New()}
}

func decodeFileMeta(buf []byte) (*fileMeta, error) {
	if len(buf) != common.PageSize {
		return nil, fmt.Errorf("disk: meta page has wrong size %d", len(buf))
	}
	magic := binary.LittleEndian.Uint32(buf[metaMagicOff:])
	if magic != MetaMagic {
		return nil, fmt.Errorf("disk: bad meta page magic %#x", magic)
	}
	m := &fileMeta{}
	copy(m.instanceID[:], buf[metaInstanceIDOff:metaInstanceIDOff+16])
	m.numExtents = binary.LittleEndian.Uint32(buf[metaNumExtentsOff:])
	m.numAllocated = binary.LittleEndian.Uint32(buf[metaNumAllocOff:])
	for i := 0; i < MaxExtents; i++ {
		off := metaExtentUsedOff + i*4
		m.extentUsedPages[i] = binary.LittleEndian.Uint32(buf[off:])
	}
	return m, nil
}

func (m *fileMeta) encode() []byte {
	buf := make([]byte, common.PageSize)
	binary.LittleEndian.PutUint32(buf[metaMagicOff:], MetaMagic)
	copy(buf[metaInstanceIDOff:metaInstanceIDOff+16], m.instanceID[:])
	binary.LittleEndian.PutUint32(buf[metaNumExtentsOff:], m.numExtents)
	binary.LittleEndian.PutUint32(buf[metaNumAllocOff:], m.numAllocated)
	for i := 0; i < MaxExtents; i++ {
		off := metaExtentUsedOff + i*4
		binary.LittleEndian.PutUint32(buf[off:], m.extentUsedPages[i])
	}
	return buf
}
