// Package eventlog implements the embedded append-only log backing the
// pipeline's source and destination topics.
//
// # Overview
//
// The log is partitioned by topic/partition and persisted in Pebble. Keys are
// lexicographically ordered for efficient range scans:
//   - log/{topic}/{part_be4}/m           (partition metadata: lastSeq, trimmedBelow)
//   - log/{topic}/{part_be4}/e/{seq_be8} (entries)
//
// Records are stored as: varint headerLen | header | payload | crc32c(header|payload).
// The header's first 8 bytes carry the append timestamp (ms) used by
// age-based retention trims.
//
// API surface (internal)
//
//	l, _ := OpenLog(db, topic, part)
//	// Append a batch atomically; returns assigned seq numbers
//	seqs, _ := l.Append(ctx, []AppendRecord{{Header: h, Payload: p}})
//
//	// Read forward from a position; next is the position to resume at
//	items, next, err := l.ReadFrom(seqs[0], 100)
//
//	// Blocking wait/notify
//	woke := l.WaitForAppend(200 * time.Millisecond)
//	_ = woke
//
// # Retention and expired positions
//
// TrimOlderThan deletes entries older than a cutoff and advances the
// partition's trimmedBelow watermark. ReadFrom on a position at or below the
// watermark returns ErrTruncated; consumers holding such a cursor must
// re-anchor at FirstRetained or give up on the partition.
package eventlog
