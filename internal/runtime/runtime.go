package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"sessionflow/internal/eventlog"
	pebblestore "sessionflow/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
}

// Runtime wires storage and the topic registry for a single-node instance.
type Runtime struct {
	db *pebblestore.DB

	mu   sync.Mutex
	logs map[logKey]*eventlog.Log
}

type logKey struct {
	topic string
	part  uint32
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval})
	if err != nil {
		return nil, err
	}
	return &Runtime{db: db, logs: make(map[logKey]*eventlog.Log)}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// OpenLog opens (or returns the cached) event log for a topic/partition.
// Logs are cached so that all callers share one append path and its
// sequence/notify state.
func (r *Runtime) OpenLog(topic string, partition uint32) (*eventlog.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := logKey{topic: topic, part: partition}
	if l, ok := r.logs[key]; ok {
		return l, nil
	}
	l, err := eventlog.OpenLog(r.db, topic, partition)
	if err != nil {
		return nil, err
	}
	r.logs[key] = l
	return l, nil
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }
