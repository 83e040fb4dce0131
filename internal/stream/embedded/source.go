package embedded

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"sessionflow/internal/eventlog"
	"sessionflow/internal/runtime"
	"sessionflow/internal/stream"
)

// SourceOptions tunes fetch behavior.
type SourceOptions struct {
	// BatchLimit caps records per Fetch. Zero means 256.
	BatchLimit int
	// MaxWait bounds how long an empty Fetch blocks for new appends before
	// reporting an empty batch. Zero means no blocking.
	MaxWait time.Duration
}

// Source consumes a topic from the embedded eventlog.
type Source struct {
	rt    *runtime.Runtime
	topic string
	parts int
	opts  SourceOptions
}

// NewSource opens a source over an existing topic. An unknown topic or one
// with zero partitions is an error.
func NewSource(rt *runtime.Runtime, topic string, opts SourceOptions) (*Source, error) {
	meta, ok := rt.TopicMeta(topic)
	if !ok {
		return nil, fmt.Errorf("embedded: unknown source topic %q", topic)
	}
	if meta.Partitions <= 0 {
		return nil, fmt.Errorf("embedded: source topic %q has no partitions", topic)
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 256
	}
	return &Source{rt: rt, topic: topic, parts: meta.Partitions, opts: opts}, nil
}

// Partitions implements stream.Source.
func (s *Source) Partitions(ctx context.Context) ([]uint32, error) {
	out := make([]uint32, s.parts)
	for i := range out {
		out[i] = uint32(i)
	}
	return out, nil
}

// InitialCursor implements stream.Source.
func (s *Source) InitialCursor(ctx context.Context, partition uint32, policy stream.StartPolicy) (stream.Cursor, error) {
	l, err := s.rt.OpenLog(s.topic, partition)
	if err != nil {
		return stream.Cursor{}, err
	}
	var seq uint64
	switch policy {
	case stream.StartEarliest:
		seq = l.FirstRetained()
	default:
		seq = l.LastSeq() + 1
	}
	return stream.Cursor{Partition: partition, Token: tokenFromSeq(seq), AdvancedAt: time.Now()}, nil
}

// Fetch implements stream.Source. An empty batch after the bounded wait is a
// normal outcome; the returned cursor must replace the input either way.
func (s *Source) Fetch(ctx context.Context, c stream.Cursor) ([]stream.Record, stream.Cursor, error) {
	seq, err := seqFromToken(c.Token)
	if err != nil {
		return nil, c, err
	}
	l, err := s.rt.OpenLog(s.topic, c.Partition)
	if err != nil {
		return nil, c, err
	}

	items, next, err := l.ReadFrom(seq, s.opts.BatchLimit)
	if err != nil {
		return nil, c, mapReadError(err, c.Partition)
	}
	if len(items) == 0 && s.opts.MaxWait > 0 && ctx.Err() == nil {
		// One bounded wait for new appends, then a single re-read.
		l.WaitForAppend(s.opts.MaxWait)
		items, next, err = l.ReadFrom(seq, s.opts.BatchLimit)
		if err != nil {
			return nil, c, mapReadError(err, c.Partition)
		}
	}

	recs := make([]stream.Record, 0, len(items))
	for _, it := range items {
		rec := stream.Record{Partition: c.Partition, Seq: it.Seq, Payload: it.Payload}
		if ms, ok := eventlog.AppendTimestamp(it.Header); ok {
			rec.ArrivalTime = time.UnixMilli(ms)
		}
		recs = append(recs, rec)
	}
	nc := stream.Cursor{Partition: c.Partition, Token: tokenFromSeq(next), AdvancedAt: time.Now()}
	return recs, nc, nil
}

// Close implements stream.Source. The runtime owns the storage handles.
func (s *Source) Close() error { return nil }

func mapReadError(err error, partition uint32) error {
	if errors.Is(err, eventlog.ErrTruncated) {
		return fmt.Errorf("partition %d: %w", partition, stream.ErrCursorExpired)
	}
	return err
}

func tokenFromSeq(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}

func seqFromToken(tok []byte) (uint64, error) {
	if len(tok) != 8 {
		return 0, fmt.Errorf("embedded: malformed cursor token (%d bytes)", len(tok))
	}
	return binary.BigEndian.Uint64(tok), nil
}
