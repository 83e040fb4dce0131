package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	pebblestore "sessionflow/internal/storage/pebble"
)

func tsHeader(ms int64) []byte {
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], uint64(ms))
	return h[:]
}

func newTrimLog(t *testing.T) *Log {
	t.Helper()
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	l, err := OpenLog(db, "sessions", 0)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	return l
}

func TestTrimOlderThanAdvancesWatermark(t *testing.T) {
	l := newTrimLog(t)
	ctx := context.Background()
	seqs, err := l.Append(ctx, []AppendRecord{
		{Header: tsHeader(100), Payload: []byte("a")},
		{Header: tsHeader(200), Payload: []byte("b")},
		{Header: tsHeader(300), Payload: []byte("c")},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	deleted, err := l.TrimOlderThan(ctx, 250, 0, 0)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted=%d want 2", deleted)
	}
	if got := l.FirstRetained(); got != seqs[2] {
		t.Fatalf("FirstRetained=%d want %d", got, seqs[2])
	}

	items, _, err := l.ReadFrom(seqs[2], 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(items) != 1 || string(items[0].Payload) != "c" {
		t.Fatalf("expected only the newest record to survive")
	}
}

func TestReadBelowWatermarkIsTruncated(t *testing.T) {
	l := newTrimLog(t)
	ctx := context.Background()
	seqs, err := l.Append(ctx, []AppendRecord{
		{Header: tsHeader(100), Payload: []byte("a")},
		{Header: tsHeader(900), Payload: []byte("b")},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := l.TrimOlderThan(ctx, 500, 0, 0); err != nil {
		t.Fatalf("trim: %v", err)
	}

	_, _, err = l.ReadFrom(seqs[0], 10)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestTrimNothingNewer(t *testing.T) {
	l := newTrimLog(t)
	ctx := context.Background()
	if _, err := l.Append(ctx, []AppendRecord{{Header: tsHeader(900), Payload: []byte("fresh")}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	deleted, err := l.TrimOlderThan(ctx, 500, 0, 0)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted=%d want 0", deleted)
	}
	if got := l.FirstRetained(); got != 1 {
		t.Fatalf("watermark moved without deletions")
	}
}
