package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sessionflow/internal/route"
	"sessionflow/internal/stream"
	logpkg "sessionflow/pkg/log"
)

// Options configures a Pipeline. Source, Sink, and Routes are required.
type Options struct {
	Source stream.Source
	Sink   stream.Sink
	Routes route.Table

	// StartPolicy anchors fresh cursors. There is no durable checkpoint:
	// every start re-applies this policy.
	StartPolicy stream.StartPolicy

	// EmptyBackoff is the sleep after an empty batch. Zero means 250ms.
	EmptyBackoff time.Duration

	// PublishMaxAttempts bounds publish retries per record. Zero means 3.
	PublishMaxAttempts int
	// PublishRetryBase is the first retry delay, doubled per attempt.
	// Zero means 50ms.
	PublishRetryBase time.Duration

	// Filter is an optional CEL expression over decoded sessions. Records
	// evaluating to false are skipped before enrichment.
	Filter string

	Logger logpkg.Logger

	// Clock supplies processing timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Pipeline owns one independent loop per source partition.
type Pipeline struct {
	src    stream.Source
	sink   stream.Sink
	routes route.Table
	filter sessionFilter
	opts   Options
	logger logpkg.Logger
	clock  func() time.Time
}

// New validates configuration and builds a Pipeline. A routing table missing
// a required tag fails here, before any loop starts.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, errors.New("pipeline: Options.Source is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("pipeline: Options.Sink is required")
	}
	if err := opts.Routes.Validate(); err != nil {
		return nil, err
	}
	filter, err := newSessionFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("pipeline: invalid filter: %w", err)
	}
	if opts.EmptyBackoff <= 0 {
		opts.EmptyBackoff = 250 * time.Millisecond
	}
	if opts.PublishMaxAttempts <= 0 {
		opts.PublishMaxAttempts = 3
	}
	if opts.PublishRetryBase <= 0 {
		opts.PublishRetryBase = 50 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		src:    opts.Source,
		sink:   opts.Sink,
		routes: opts.Routes,
		filter: filter,
		opts:   opts,
		logger: logger.WithComponent("pipeline"),
		clock:  clock,
	}, nil
}

// Run discovers the source partitions, starts one loop per partition, and
// blocks until every loop has stopped. Enumeration failures and an empty
// partition set are fatal; after startup, partition failures stay local.
func (p *Pipeline) Run(ctx context.Context) error {
	parts, err := p.src.Partitions(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: list partitions: %w", err)
	}
	if len(parts) == 0 {
		return errors.New("pipeline: source has no partitions")
	}
	p.logger.Info("pipeline starting",
		logpkg.Int("partitions", len(parts)),
		logpkg.Str("start_policy", p.opts.StartPolicy.String()),
	)

	var wg sync.WaitGroup
	for _, part := range parts {
		wg.Add(1)
		go func(partition uint32) {
			defer wg.Done()
			p.runPartition(ctx, partition)
		}(part)
	}
	wg.Wait()
	p.logger.Info("pipeline stopped")
	return nil
}
