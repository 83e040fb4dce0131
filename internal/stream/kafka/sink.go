package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	logpkg "sessionflow/pkg/log"
)

// Sink publishes records to Kafka topics. Records carry the session id as
// the message key, so Kafka's key hashing keeps one session on one
// destination partition.
type Sink struct {
	client *kgo.Client
	logger logpkg.Logger
}

// NewSink connects a producer client.
func NewSink(cfg Config) (*Sink, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	kopts, err := cfg.clientOpts()
	if err != nil {
		return nil, err
	}
	kopts = append(kopts, kgo.RequiredAcks(kgo.AllISRAcks()))
	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: producer: %w", err)
	}
	return &Sink{
		client: client,
		logger: cfg.logger().WithComponent("kafka-sink"),
	}, nil
}

// Publish produces one record synchronously and returns its offset.
func (s *Sink) Publish(ctx context.Context, topic, key string, payload []byte) (uint64, error) {
	rec := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	res := s.client.ProduceSync(ctx, rec)
	if err := res.FirstErr(); err != nil {
		return 0, fmt.Errorf("kafka: produce to %q: %w", topic, err)
	}
	return uint64(rec.Offset), nil
}

// Close flushes and shuts down the producer.
func (s *Sink) Close() error {
	err := s.client.Flush(context.Background())
	s.client.Close()
	return err
}
