package recovery

import (
	"testing"

	"github.com/Zhouua/minisql/internal/common"
)

func TestFactoryAssignsIncreasingLSNs(t *testing.T) {
	f := NewFactory()
	r1 := f.Begin(1)
	r2 := f.Insert(1, "k", 1)
	r3 := f.Commit(1)

	if r1.LSN != 0 || r2.LSN != 1 || r3.LSN != 2 {
		t.Fatalf("LSNs = %d, %d, %d, want 0, 1, 2", r1.LSN, r2.LSN, r3.LSN)
	}
	if f.NextLSN() != 3 {
		t.Fatalf("NextLSN() = %d, want 3", f.NextLSN())
	}
}

func TestFactoryChainsPrevLSNPerTransaction(t *testing.T) {
	f := NewFactory()
	begin := f.Begin(1)
	insert := f.Insert(1, "k", 1)
	commit := f.Commit(1)

	if begin.PrevLSN != common.InvalidLSN {
		t.Fatalf("Begin.PrevLSN = %d, want InvalidLSN", begin.PrevLSN)
	}
	if insert.PrevLSN != begin.LSN {
		t.Fatalf("Insert.PrevLSN = %d, want %d (Begin's LSN)", insert.PrevLSN, begin.LSN)
	}
	if commit.PrevLSN != insert.LSN {
		t.Fatalf("Commit.PrevLSN = %d, want %d (Insert's LSN)", commit.PrevLSN, insert.LSN)
	}
}

func TestFactoryTracksEachTransactionIndependently(t *testing.T) {
	f := NewFactory()
	b1 := f.Begin(1)
	b2 := f.Begin(2)
	i1 := f.Insert(1, "a", 1)
	i2 := f.Insert(2, "b", 2)

	if i1.PrevLSN != b1.LSN {
		t.Fatalf("txn 1's insert.PrevLSN = %d, want %d", i1.PrevLSN, b1.LSN)
	}
	if i2.PrevLSN != b2.LSN {
		t.Fatalf("txn 2's insert.PrevLSN = %d, want %d", i2.PrevLSN, b2.LSN)
	}
}

func TestFactoryUpdateRecordsOldAndNewValues(t *testing.T) {
	f := NewFactory()
	f.Begin(1)
	rec := f.Update(1, "old", 1, "new", 2)
	if rec.BeginKey != "old" || rec.BeginVal != 1 || rec.EndKey != "new" || rec.EndVal != 2 {
		t.Fatalf("Update record = %+v", rec)
	}
}
