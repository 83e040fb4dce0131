package embedded

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"sessionflow/internal/eventlog"
	"sessionflow/internal/runtime"
	pebblestore "sessionflow/internal/storage/pebble"
	"sessionflow/internal/stream"
)

func newTestRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func appendPayloads(t *testing.T, rt *runtime.Runtime, topic string, partition uint32, payloads ...string) []uint64 {
	t.Helper()
	l, err := rt.OpenLog(topic, partition)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	recs := make([]eventlog.AppendRecord, len(payloads))
	for i, p := range payloads {
		var hdr [8]byte
		binary.BigEndian.PutUint64(hdr[:], uint64(time.Now().UnixMilli()))
		recs[i] = eventlog.AppendRecord{Header: hdr[:], Payload: []byte(p)}
	}
	seqs, err := l.Append(context.Background(), recs)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return seqs
}

func TestNewSourceUnknownTopic(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := NewSource(rt, "missing", SourceOptions{}); err == nil {
		t.Fatalf("expected error for unknown topic")
	}
}

func TestPartitionsListsAll(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.EnsureTopic("sessions", 3); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	src, err := NewSource(rt, "sessions", SourceOptions{})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	parts, err := src.Partitions(context.Background())
	if err != nil {
		t.Fatalf("partitions: %v", err)
	}
	if len(parts) != 3 || parts[0] != 0 || parts[2] != 2 {
		t.Fatalf("unexpected partitions: %v", parts)
	}
}

func TestInitialCursorPolicies(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.EnsureTopic("sessions", 1); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	appendPayloads(t, rt, "sessions", 0, "backlog-1", "backlog-2")

	src, err := NewSource(rt, "sessions", SourceOptions{})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	ctx := context.Background()

	// Earliest replays the backlog.
	early, err := src.InitialCursor(ctx, 0, stream.StartEarliest)
	if err != nil {
		t.Fatalf("earliest: %v", err)
	}
	recs, _, err := src.Fetch(ctx, early)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("earliest should see backlog, got %d", len(recs))
	}

	// Latest skips it.
	late, err := src.InitialCursor(ctx, 0, stream.StartLatest)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	recs, _, err = src.Fetch(ctx, late)
	if err != nil {
		t.Fatalf("fetch latest: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("latest should skip backlog, got %d", len(recs))
	}
}

func TestEmptyFetchReturnsUsableCursor(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.EnsureTopic("sessions", 1); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	src, err := NewSource(rt, "sessions", SourceOptions{})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	ctx := context.Background()

	cur, err := src.InitialCursor(ctx, 0, stream.StartLatest)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	recs, next, err := src.Fetch(ctx, cur)
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected clean empty batch, got %d recs err=%v", len(recs), err)
	}

	appendPayloads(t, rt, "sessions", 0, "late-arrival")
	recs, _, err = src.Fetch(ctx, next)
	if err != nil {
		t.Fatalf("fetch after append: %v", err)
	}
	if len(recs) != 1 || string(recs[0].Payload) != "late-arrival" {
		t.Fatalf("cursor from empty batch should pick up new records")
	}
}

func TestFetchBlocksUntilAppend(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.EnsureTopic("sessions", 1); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	src, err := NewSource(rt, "sessions", SourceOptions{MaxWait: 2 * time.Second})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	ctx := context.Background()
	cur, err := src.InitialCursor(ctx, 0, stream.StartLatest)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		appendPayloads(t, rt, "sessions", 0, "woke")
	}()

	recs, _, err := src.Fetch(ctx, cur)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected blocking fetch to observe the append")
	}
}

func TestExpiredCursorAfterTrim(t *testing.T) {
	rt := newTestRuntime(t)
	if _, err := rt.EnsureTopic("sessions", 1); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	src, err := NewSource(rt, "sessions", SourceOptions{})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	ctx := context.Background()

	cur, err := src.InitialCursor(ctx, 0, stream.StartEarliest)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}

	// Write, then trim everything so the held cursor points below the
	// retention watermark.
	l, err := rt.OpenLog("sessions", 0)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], uint64(100))
	if _, err := l.Append(ctx, []eventlog.AppendRecord{{Header: hdr[:], Payload: []byte("old")}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := l.TrimOlderThan(ctx, 200, 0, 0); err != nil {
		t.Fatalf("trim: %v", err)
	}

	_, _, err = src.Fetch(ctx, cur)
	if !errors.Is(err, stream.ErrCursorExpired) {
		t.Fatalf("want ErrCursorExpired, got %v", err)
	}

	// Re-anchoring at earliest retained recovers.
	resumed, err := src.InitialCursor(ctx, 0, stream.StartEarliest)
	if err != nil {
		t.Fatalf("resume cursor: %v", err)
	}
	if _, _, err := src.Fetch(ctx, resumed); err != nil {
		t.Fatalf("fetch after resume: %v", err)
	}
}
