package eventlog

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/cockroachdb/pebble"
)

// TrimOlderThan deletes entries whose header timestamp is older than cutoffMs
// and advances the partition's trimmedBelow watermark. Deletes are committed
// in batches of up to batchLimit keys with an optional throttle between
// commits. Returns the number of deleted entries.
func (l *Log) TrimOlderThan(ctx context.Context, cutoffMs int64, batchLimit int, throttle time.Duration) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}

	low := KeyLogEntry(l.topic, l.part, 0)
	hi := KeyLogEntry(l.topic, l.part, ^uint64(0))
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	deleted := 0
	var lastDeleted uint64
	for ok := iter.First(); ok; {
		b := l.db.NewBatch()
		n := 0
		for ok && n < batchLimit {
			key := iter.Key()
			seq := binary.BigEndian.Uint64(key[len(key)-8:])
			dec, okDec := DecodeRecord(iter.Value())
			if okDec {
				if ms, okTs := AppendTimestamp(dec.Header); okTs && ms < cutoffMs {
					if err := b.Delete(key, nil); err != nil {
						b.Close()
						return deleted, err
					}
					deleted++
					lastDeleted = seq
					n++
					ok = iter.Next()
					continue
				}
			}
			// entries are in append order; stop at the first one newer than cutoff
			ok = false
			break
		}
		if n > 0 {
			l.mu.Lock()
			if lastDeleted > l.trimmedBelow {
				l.trimmedBelow = lastDeleted
			}
			meta := l.encodeMetaLocked()
			l.mu.Unlock()
			if err := b.Set(KeyPartitionMeta(l.topic, l.part), meta, nil); err != nil {
				b.Close()
				return deleted, err
			}
			if err := l.db.CommitBatch(ctx, b); err != nil {
				b.Close()
				return deleted, err
			}
			b.Close()
			if throttle > 0 {
				time.Sleep(throttle)
			}
		} else {
			b.Close()
		}
	}
	return deleted, nil
}
