package embedded

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"sessionflow/internal/eventlog"
	"sessionflow/internal/runtime"
)

// Sink appends enriched payloads to embedded destination topics. Destination
// topics must be registered (runtime.EnsureTopic) before the first publish.
type Sink struct {
	rt *runtime.Runtime
}

// NewSink creates a Sink over the runtime's storage.
func NewSink(rt *runtime.Runtime) *Sink { return &Sink{rt: rt} }

// Publish implements stream.Sink. The partition is derived from the key so
// that repeated keys land on the same destination partition.
func (s *Sink) Publish(ctx context.Context, topic, key string, payload []byte) (uint64, error) {
	meta, ok := s.rt.TopicMeta(topic)
	if !ok {
		return 0, fmt.Errorf("embedded: unknown destination topic %q", topic)
	}
	var part uint32
	if key != "" && meta.Partitions > 0 {
		part = crc32.ChecksumIEEE([]byte(key)) % uint32(meta.Partitions)
	}
	l, err := s.rt.OpenLog(topic, part)
	if err != nil {
		return 0, err
	}

	// 8-byte append timestamp header, as the source side expects for
	// arrival times and retention trims.
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], uint64(time.Now().UnixMilli()))
	seqs, err := l.Append(ctx, []eventlog.AppendRecord{{Header: hdr[:], Payload: payload}})
	if err != nil {
		return 0, err
	}
	if len(seqs) == 0 {
		return 0, fmt.Errorf("embedded: append assigned no sequence")
	}
	return seqs[0], nil
}

// Close implements stream.Sink. The runtime owns the storage handles.
func (s *Sink) Close() error { return nil }
