package eventlog

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"
)

// Item is a single entry returned by ReadFrom.
type Item struct {
	Seq     uint64
	Header  []byte
	Payload []byte
}

// ReadFrom returns up to limit items beginning at start (inclusive), plus the
// position to resume at. When the partition has no records at or past start,
// it returns an empty slice and next == start.
//
// A start at or below the trimmedBelow watermark returns ErrTruncated: the
// requested records were removed by retention and the caller must re-anchor.
func (l *Log) ReadFrom(start uint64, limit int) ([]Item, uint64, error) {
	l.mu.Lock()
	trimmedBelow := l.trimmedBelow
	l.mu.Unlock()
	if start == 0 {
		start = 1
	}
	if start <= trimmedBelow {
		return nil, start, ErrTruncated
	}

	low := KeyLogEntry(l.topic, l.part, start)
	hi := KeyLogEntry(l.topic, l.part, ^uint64(0))
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return nil, start, err
	}
	defer iter.Close()

	items := make([]Item, 0, limit)
	next := start
	for ok := iter.First(); ok && (limit <= 0 || len(items) < limit); ok = iter.Next() {
		key := iter.Key()
		seq := binary.BigEndian.Uint64(key[len(key)-8:])
		dec, okDec := DecodeRecord(iter.Value())
		if okDec {
			items = append(items, Item{Seq: seq, Header: dec.Header, Payload: dec.Payload})
		}
		next = seq + 1
	}
	return items, next, nil
}
