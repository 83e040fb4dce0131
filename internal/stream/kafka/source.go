package kafka

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"sessionflow/internal/stream"
	logpkg "sessionflow/pkg/log"
)

// SourceOptions configures a Kafka-backed Source.
type SourceOptions struct {
	Config

	// Topic is the source topic to consume.
	Topic string

	// BatchLimit caps records per Fetch. Zero means 256.
	BatchLimit int

	// MaxWait bounds how long Fetch blocks waiting for new records before
	// reporting an empty batch. Zero means 500ms.
	MaxWait time.Duration
}

// partitionConsumer is one manually-assigned consumer pinned to an offset.
type partitionConsumer struct {
	client *kgo.Client
	next   int64
}

// Source consumes one Kafka topic partition by partition with explicit
// offsets. Cursor tokens carry the next offset to read.
type Source struct {
	opts   SourceOptions
	logger logpkg.Logger

	admBase *kgo.Client
	admin   *kadm.Client

	mu        sync.Mutex
	consumers map[uint32]*partitionConsumer
}

// NewSource connects to the cluster and verifies the topic exists.
func NewSource(opts SourceOptions) (*Source, error) {
	if err := opts.Config.validate(); err != nil {
		return nil, err
	}
	if opts.Topic == "" {
		return nil, errors.New("kafka: source topic is required")
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 256
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 500 * time.Millisecond
	}
	kopts, err := opts.Config.clientOpts()
	if err != nil {
		return nil, err
	}
	base, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: client: %w", err)
	}
	s := &Source{
		opts:      opts,
		logger:    opts.Config.logger().WithComponent("kafka-source"),
		admBase:   base,
		admin:     kadm.NewClient(base),
		consumers: make(map[uint32]*partitionConsumer),
	}
	return s, nil
}

// Partitions lists the topic's partition ids in ascending order.
func (s *Source) Partitions(ctx context.Context) ([]uint32, error) {
	topics, err := s.admin.ListTopics(ctx, s.opts.Topic)
	if err != nil {
		return nil, fmt.Errorf("kafka: list topics: %w", err)
	}
	td, ok := topics[s.opts.Topic]
	if !ok || td.Err != nil {
		return nil, fmt.Errorf("kafka: topic %q not found", s.opts.Topic)
	}
	parts := make([]uint32, 0, len(td.Partitions))
	for id := range td.Partitions {
		parts = append(parts, uint32(id))
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	return parts, nil
}

// InitialCursor anchors a cursor at the partition's start or end offset.
func (s *Source) InitialCursor(ctx context.Context, partition uint32, policy stream.StartPolicy) (stream.Cursor, error) {
	var (
		listed kadm.ListedOffsets
		err    error
	)
	if policy == stream.StartEarliest {
		listed, err = s.admin.ListStartOffsets(ctx, s.opts.Topic)
	} else {
		listed, err = s.admin.ListEndOffsets(ctx, s.opts.Topic)
	}
	if err != nil {
		return stream.Cursor{}, fmt.Errorf("kafka: list offsets: %w", err)
	}
	lo, ok := listed.Lookup(s.opts.Topic, int32(partition))
	if !ok {
		return stream.Cursor{}, fmt.Errorf("kafka: partition %d not found in topic %q", partition, s.opts.Topic)
	}
	if lo.Err != nil {
		return stream.Cursor{}, fmt.Errorf("kafka: list offsets for partition %d: %w", partition, lo.Err)
	}
	return stream.Cursor{
		Partition:  partition,
		Token:      tokenFromOffset(lo.Offset),
		AdvancedAt: time.Now(),
	}, nil
}

// Fetch polls the partition at the cursor's offset. A cursor pointing below
// the partition's retained start is reported as expired.
func (s *Source) Fetch(ctx context.Context, c stream.Cursor) ([]stream.Record, stream.Cursor, error) {
	offset, err := offsetFromToken(c.Token)
	if err != nil {
		return nil, c, err
	}
	pc, err := s.consumerAt(ctx, c.Partition, offset)
	if err != nil {
		return nil, c, err
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.MaxWait)
	fetches := pc.client.PollRecords(pctx, s.opts.BatchLimit)
	cancel()

	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
			continue
		}
		if errors.Is(fe.Err, kerr.OffsetOutOfRange) {
			s.dropConsumer(c.Partition)
			return nil, c, fmt.Errorf("partition %d: %w", c.Partition, stream.ErrCursorExpired)
		}
		return nil, c, fmt.Errorf("kafka: fetch partition %d: %w", c.Partition, fe.Err)
	}

	var recs []stream.Record
	next := offset
	fetches.EachRecord(func(rec *kgo.Record) {
		recs = append(recs, stream.Record{
			Partition:   c.Partition,
			Seq:         uint64(rec.Offset),
			Payload:     rec.Value,
			ArrivalTime: rec.Timestamp,
		})
		if rec.Offset+1 > next {
			next = rec.Offset + 1
		}
	})
	pc.next = next
	return recs, stream.Cursor{
		Partition:  c.Partition,
		Token:      tokenFromOffset(next),
		AdvancedAt: time.Now(),
	}, nil
}

// consumerAt returns the partition's consumer positioned at offset, building
// or rebuilding it as needed. A rebuild below the retained start offset is a
// cursor expiry.
func (s *Source) consumerAt(ctx context.Context, partition uint32, offset int64) (*partitionConsumer, error) {
	s.mu.Lock()
	pc := s.consumers[partition]
	s.mu.Unlock()
	if pc != nil && pc.next == offset {
		return pc, nil
	}
	if pc != nil {
		s.dropConsumer(partition)
	}

	starts, err := s.admin.ListStartOffsets(ctx, s.opts.Topic)
	if err != nil {
		return nil, fmt.Errorf("kafka: list start offsets: %w", err)
	}
	if lo, ok := starts.Lookup(s.opts.Topic, int32(partition)); ok && offset < lo.Offset {
		return nil, fmt.Errorf("partition %d: %w", partition, stream.ErrCursorExpired)
	}

	kopts, err := s.opts.Config.clientOpts()
	if err != nil {
		return nil, err
	}
	kopts = append(kopts, kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
		s.opts.Topic: {int32(partition): kgo.NewOffset().At(offset)},
	}))
	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: consumer for partition %d: %w", partition, err)
	}
	pc = &partitionConsumer{client: client, next: offset}
	s.mu.Lock()
	s.consumers[partition] = pc
	s.mu.Unlock()
	s.logger.Debug("partition consumer started",
		logpkg.Int("partition", int(partition)),
		logpkg.Int64("offset", offset),
	)
	return pc, nil
}

func (s *Source) dropConsumer(partition uint32) {
	s.mu.Lock()
	pc := s.consumers[partition]
	delete(s.consumers, partition)
	s.mu.Unlock()
	if pc != nil {
		pc.client.Close()
	}
}

// Close shuts down every partition consumer and the admin client.
func (s *Source) Close() error {
	s.mu.Lock()
	consumers := s.consumers
	s.consumers = make(map[uint32]*partitionConsumer)
	s.mu.Unlock()
	for _, pc := range consumers {
		pc.client.Close()
	}
	s.admBase.Close()
	return nil
}

func tokenFromOffset(offset int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(offset))
	return b
}

func offsetFromToken(token []byte) (int64, error) {
	if len(token) != 8 {
		return 0, fmt.Errorf("kafka: malformed cursor token (%d bytes)", len(token))
	}
	return int64(binary.BigEndian.Uint64(token)), nil
}
