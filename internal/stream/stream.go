package stream

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Record is one raw entry fetched from a source partition.
type Record struct {
	Partition   uint32
	Seq         uint64
	Payload     []byte
	ArrivalTime time.Time
}

// Cursor identifies the next read position within one partition. Token is
// opaque to callers and must be replaced with the one returned by every
// Fetch call. Cursors live only for the process's runtime.
type Cursor struct {
	Partition  uint32
	Token      []byte
	AdvancedAt time.Time
}

// StartPolicy selects where a fresh cursor begins.
type StartPolicy int

const (
	// StartLatest begins after the current tail, skipping any backlog.
	StartLatest StartPolicy = iota
	// StartEarliest begins at the oldest retained record (full replay).
	StartEarliest
)

// String returns the policy's configuration name.
func (p StartPolicy) String() string {
	switch p {
	case StartLatest:
		return "latest"
	case StartEarliest:
		return "earliest"
	default:
		return "unknown"
	}
}

// ParseStartPolicy converts a configuration value to a StartPolicy.
func ParseStartPolicy(s string) (StartPolicy, error) {
	switch s {
	case "", "latest":
		return StartLatest, nil
	case "earliest":
		return StartEarliest, nil
	default:
		return StartLatest, fmt.Errorf("stream: unknown start policy %q (use latest|earliest)", s)
	}
}

// ErrCursorExpired reports that a cursor's position was removed by retention.
// The holder may re-anchor with InitialCursor(partition, StartEarliest); if
// that also fails the partition cannot be consumed further.
var ErrCursorExpired = errors.New("stream: cursor expired")

// Source is a partitioned log consumed by the pipeline.
type Source interface {
	// Partitions returns the fixed partition set of the source topic.
	// An unknown topic or one with zero partitions is an error; the
	// pipeline treats it as fatal at startup.
	Partitions(ctx context.Context) ([]uint32, error)

	// InitialCursor resolves a fresh cursor for one partition.
	InitialCursor(ctx context.Context, partition uint32, policy StartPolicy) (Cursor, error)

	// Fetch returns the next batch for the cursor plus the replacement
	// cursor. An empty batch is a normal outcome, never an error; Fetch may
	// block up to the backend's configured max wait before reporting it.
	Fetch(ctx context.Context, c Cursor) ([]Record, Cursor, error)

	// Close releases backend resources.
	Close() error
}

// Sink appends payloads to destination topics. The partition key keeps
// records for the same session on one destination partition.
type Sink interface {
	Publish(ctx context.Context, topic, key string, payload []byte) (seq uint64, err error)
	Close() error
}
