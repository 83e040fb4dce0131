package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	pebblestore "sessionflow/internal/storage/pebble"
)

// AppendRecord represents a single appendable event.
type AppendRecord struct {
	Header  []byte
	Payload []byte
}

// ErrTruncated is returned when a read position lies at or below the
// partition's trimmedBelow watermark; the records there no longer exist.
var ErrTruncated = errors.New("eventlog: position below first retained record")

// Log provides append-only operations for one topic/partition.
type Log struct {
	db    *pebblestore.DB
	topic string
	part  uint32

	mu           sync.Mutex
	lastSeq      uint64
	trimmedBelow uint64 // all seqs <= trimmedBelow have been deleted
	notifyCh     chan struct{}
}

// OpenLog initializes a Log and loads sequence watermarks from metadata (if any).
func OpenLog(db *pebblestore.DB, topic string, partition uint32) (*Log, error) {
	l := &Log{db: db, topic: topic, part: partition, notifyCh: make(chan struct{})}
	meta, err := db.Get(KeyPartitionMeta(topic, partition))
	if err == nil {
		if len(meta) >= 8 {
			l.lastSeq = binary.BigEndian.Uint64(meta[:8])
		}
		if len(meta) >= 16 {
			l.trimmedBelow = binary.BigEndian.Uint64(meta[8:16])
		}
	}
	return l, nil
}

// Append appends the provided records as a single atomic batch. Returns assigned seq numbers.
func (l *Log) Append(ctx context.Context, recs []AppendRecord) ([]uint64, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.db.NewBatch()
	defer b.Close()

	seqs := make([]uint64, len(recs))
	for i, r := range recs {
		l.lastSeq++
		seq := l.lastSeq
		val := EncodeRecord(r.Header, r.Payload)
		if err := b.Set(KeyLogEntry(l.topic, l.part, seq), val, nil); err != nil {
			return nil, err
		}
		seqs[i] = seq
	}

	if err := b.Set(KeyPartitionMeta(l.topic, l.part), l.encodeMetaLocked(), nil); err != nil {
		return nil, err
	}

	if err := l.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	// notify waiters
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})
	return seqs, nil
}

// LastSeq returns the highest assigned sequence (0 when nothing was appended).
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// FirstRetained returns the lowest sequence still present in the partition.
// For an empty or fully trimmed partition it equals LastSeq()+1.
func (l *Log) FirstRetained() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.trimmedBelow + 1
}

// encodeMetaLocked serializes lastSeq and trimmedBelow. Caller holds mu.
func (l *Log) encodeMetaLocked() []byte {
	var meta [16]byte
	binary.BigEndian.PutUint64(meta[:8], l.lastSeq)
	binary.BigEndian.PutUint64(meta[8:16], l.trimmedBelow)
	return meta[:]
}
