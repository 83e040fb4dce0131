package eventlog

import (
	"context"
	"testing"

	pebblestore "sessionflow/internal/storage/pebble"
)

func seedLog(t *testing.T, n int) (*Log, []uint64) {
	t.Helper()
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	l, err := OpenLog(db, "sessions", 1)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	recs := make([]AppendRecord, n)
	for i := 0; i < n; i++ {
		recs[i] = AppendRecord{Payload: []byte{byte(i)}}
	}
	seqs, err := l.Append(context.Background(), recs)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return l, seqs
}

func TestReadForward(t *testing.T) {
	l, seqs := seedLog(t, 5)
	items, next, err := l.ReadFrom(0, 3)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("want 3 items, got %d", len(items))
	}
	if items[0].Seq != seqs[0] || items[2].Seq != seqs[2] {
		t.Fatalf("unexpected seqs")
	}
	if next != seqs[2]+1 {
		t.Fatalf("next=%d want %d", next, seqs[2]+1)
	}
}

func TestSeekBySequence(t *testing.T) {
	l, seqs := seedLog(t, 4)
	items, _, err := l.ReadFrom(seqs[2], 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) == 0 || items[0].Seq != seqs[2] {
		t.Fatalf("seek failed")
	}
}

func TestReadPastTailIsEmpty(t *testing.T) {
	l, seqs := seedLog(t, 2)
	start := seqs[1] + 1
	items, next, err := l.ReadFrom(start, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("want empty batch, got %d items", len(items))
	}
	if next != start {
		t.Fatalf("next=%d want unchanged start=%d", next, start)
	}
}

func TestReadResumesAfterEmptyBatch(t *testing.T) {
	l, seqs := seedLog(t, 1)
	start := seqs[0] + 1
	_, next, err := l.ReadFrom(start, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	more, err2 := l.Append(context.Background(), []AppendRecord{{Payload: []byte("late")}})
	if err2 != nil {
		t.Fatalf("append: %v", err2)
	}
	items, _, err := l.ReadFrom(next, 10)
	if err != nil {
		t.Fatalf("read2: %v", err)
	}
	if len(items) != 1 || items[0].Seq != more[0] {
		t.Fatalf("expected the late record at resumed position")
	}
}
