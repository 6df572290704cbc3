package recovery

import (
	"log"

	"github.com/Zhouua/minisql/internal/common"
)

// CheckPoint is a recovery starting point: the LSN up to which data is
// already known durable, which transactions were active at that instant,
// and the data image as of that LSN.
type CheckPoint struct {
	LSN         common.LSN
	ActiveTxns  map[common.TxnID]common.LSN
	PersistData map[string]int32
}

// NewCheckPoint returns an empty checkpoint at common.InvalidLSN, meaning
// "recover from the start of the log".
func NewCheckPoint() CheckPoint {
	return CheckPoint{
		LSN:         common.InvalidLSN,
		ActiveTxns:  make(map[common.TxnID]common.LSN),
		PersistData: make(map[string]int32),
	}
}

// Manager replays a write-ahead log against an in-memory key/value image,
// in two passes: Redo rolls every operation since the checkpoint forward,
// then Undo rolls back whatever transactions Redo left active (crashed
// mid-transaction). Ported from original_source's RecoveryManager.
type Manager struct {
	logger      *log.Logger
	logRecs     map[common.LSN]LogRecord
	persistLSN  common.LSN
	activeTxns  map[common.TxnID]common.LSN
	data        map[string]int32
	nextLSNHint common.LSN // highest LSN + 1 seen via AppendLogRec, for Undo/Redo bounds
}

// NewManager returns a Manager with no log records and an empty image.
// Call Init with a checkpoint (possibly NewCheckPoint's empty one) before
// appending log records.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.Writer(), "recovery: ", log.LstdFlags)
	}
	return &Manager{logger: logger, logRecs: make(map[common.LSN]LogRecord)}
}

// Init seeds the manager from a checkpoint: its active-transaction table,
// its data image, and the LSN recovery must resume after.
func (m *Manager) Init(cp CheckPoint) {
	m.activeTxns = make(map[common.TxnID]common.LSN, len(cp.ActiveTxns))
	for k, v := range cp.ActiveTxns {
		m.activeTxns[k] = v
	}
	m.data = make(map[string]int32, len(cp.PersistData))
	for k, v := range cp.PersistData {
		m.data[k] = v
	}
	m.persistLSN = cp.LSN
	m.logRecs = make(map[common.LSN]LogRecord)
}

// AppendLogRec adds rec to the manager's log, for later Redo/Undo. Tracks
// the highest LSN seen so Redo knows where the log ends.
func (m *Manager) AppendLogRec(rec LogRecord) {
	m.logRecs[rec.LSN] = rec
	if rec.LSN+1 > m.nextLSNHint {
		m.nextLSNHint = rec.LSN + 1
	}
}

// Data returns the manager's current key/value image, post-recovery.
func (m *Manager) Data() map[string]int32 { return m.data }

// ActiveTxns returns the transactions Redo left active (and Undo will then
// roll back).
func (m *Manager) ActiveTxns() map[common.TxnID]common.LSN { return m.activeTxns }

// Redo replays every log record after the checkpoint LSN forward, applying
// each operation to the data image and tracking which transactions are
// active (no commit/abort seen yet).
func (m *Manager) Redo() {
	start := m.persistLSN + 1
	for lsn := start; lsn < m.nextLSNHint; lsn++ {
		rec, ok := m.logRecs[lsn]
		if !ok {
			continue
		}
		switch rec.Type {
		case RecInsert:
			m.data[rec.BeginKey] = rec.BeginVal
			m.activeTxns[rec.TxnID] = rec.LSN
		case RecUpdate:
			delete(m.data, rec.BeginKey)
			m.data[rec.EndKey] = rec.EndVal
			m.activeTxns[rec.TxnID] = rec.LSN
		case RecDelete:
			delete(m.data, rec.BeginKey)
			m.activeTxns[rec.TxnID] = rec.LSN
		case RecBegin:
			m.activeTxns[rec.TxnID] = rec.LSN
		case RecCommit, RecAbort:
			delete(m.activeTxns, rec.TxnID)
		}
	}
}

// Undo rolls back every transaction still active after Redo, walking the
// log backward from its last record and reversing each operation
// belonging to a still-active transaction until that transaction's Begin
// record is reached.
func (m *Manager) Undo() {
	for lsn := m.nextLSNHint - 1; lsn != common.InvalidLSN && lsn >= 0 && len(m.activeTxns) > 0; lsn-- {
		rec, ok := m.logRecs[lsn]
		if !ok {
			continue
		}
		if _, active := m.activeTxns[rec.TxnID]; !active {
			continue
		}
		switch rec.Type {
		case RecInsert:
			delete(m.data, rec.BeginKey)
		case RecUpdate:
			delete(m.data, rec.EndKey)
			m.data[rec.BeginKey] = rec.BeginVal
		case RecDelete:
			m.data[rec.BeginKey] = rec.BeginVal
		case RecBegin:
			delete(m.activeTxns, rec.TxnID)
		}
	}
}
