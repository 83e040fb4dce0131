package runcmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cfgpkg "sessionflow/internal/config"
	"sessionflow/internal/pipeline"
	"sessionflow/internal/route"
	"sessionflow/internal/runtime"
	pebblestore "sessionflow/internal/storage/pebble"
	"sessionflow/internal/stream"
	"sessionflow/internal/stream/embedded"
	"sessionflow/internal/stream/kafka"
	logpkg "sessionflow/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
}

// Run starts the pipeline and blocks until ctx is cancelled or startup
// fails. Configuration faults (bad backend, incomplete routes, unknown
// topic) fail here before any loop starts.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers that
	// pass a plain context still get clean shutdown on SIGINT/SIGTERM.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	logpkg.RedirectStdLog(logger)

	routes := route.NewTable(cfg.Routes)
	if err := routes.Validate(); err != nil {
		return err
	}

	policy, err := stream.ParseStartPolicy(cfg.Source.StartPolicy)
	if err != nil {
		return err
	}

	logger.Info("starting sessionflow",
		logpkg.Str("backend", cfg.Backend),
		logpkg.Str("source_topic", cfg.Source.Topic),
		logpkg.Str("start_policy", policy.String()),
	)

	var (
		src stream.Source
		snk stream.Sink
	)
	switch cfg.Backend {
	case cfgpkg.BackendEmbedded:
		rt, s, k, err := buildEmbedded(cfg, routes, logger)
		if err != nil {
			return err
		}
		defer rt.Close()
		if cfg.Storage.RetentionHours > 0 {
			go retentionLoop(sctx, rt, cfg, routes, logger)
		}
		src, snk = s, k
	case cfgpkg.BackendKafka:
		s, k, err := buildKafka(cfg, logger)
		if err != nil {
			return err
		}
		src, snk = s, k
	}
	defer src.Close()
	defer snk.Close()

	p, err := pipeline.New(pipeline.Options{
		Source:             src,
		Sink:               snk,
		Routes:             routes,
		StartPolicy:        policy,
		EmptyBackoff:       time.Duration(cfg.Pipeline.EmptyBackoffMs) * time.Millisecond,
		PublishMaxAttempts: cfg.Pipeline.PublishMaxAttempts,
		PublishRetryBase:   time.Duration(cfg.Pipeline.PublishRetryBaseMs) * time.Millisecond,
		Filter:             cfg.Pipeline.Filter,
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	return p.Run(sctx)
}

// buildLogger builds the process logger from config, falling back to a sane
// default on a bad level/format.
func buildLogger(cfg cfgpkg.LogConfig) (logpkg.Logger, error) {
	logger, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Level, Format: cfg.Format})
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		logger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	return logger, nil
}

// buildEmbedded opens the local store and provisions the source and every
// destination topic before any loop starts.
func buildEmbedded(cfg cfgpkg.Config, routes route.Table, logger logpkg.Logger) (*runtime.Runtime, *embedded.Source, *embedded.Sink, error) {
	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	fsync, interval, err := fsyncMode(cfg.Storage)
	if err != nil {
		return nil, nil, nil, err
	}
	rt, err := runtime.Open(runtime.Options{
		DataDir:       filepath.Join(dataDir, "store"),
		Fsync:         fsync,
		FsyncInterval: interval,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := rt.EnsureTopic(cfg.Source.Topic, cfg.Storage.SourcePartitions); err != nil {
		rt.Close()
		return nil, nil, nil, err
	}
	for _, dest := range routes.Destinations() {
		if _, err := rt.EnsureTopic(dest, cfg.Storage.DestinationPartitions); err != nil {
			rt.Close()
			return nil, nil, nil, err
		}
	}
	src, err := embedded.NewSource(rt, cfg.Source.Topic, embedded.SourceOptions{
		BatchLimit: cfg.Source.BatchLimit,
		MaxWait:    time.Duration(cfg.Source.FetchMaxWaitMs) * time.Millisecond,
	})
	if err != nil {
		rt.Close()
		return nil, nil, nil, err
	}
	logger.Info("embedded store open", logpkg.Str("data_dir", dataDir))
	return rt, src, embedded.NewSink(rt), nil
}

func buildKafka(cfg cfgpkg.Config, logger logpkg.Logger) (*kafka.Source, *kafka.Sink, error) {
	kcfg := kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		TLS:     cfg.Kafka.TLS,
		Logger:  logger,
	}
	if cfg.Kafka.SASLMechanism != "" {
		kcfg.SASL = &kafka.SASLConfig{
			Mechanism: cfg.Kafka.SASLMechanism,
			User:      cfg.Kafka.SASLUser,
			Password:  cfg.Kafka.SASLPassword,
		}
	}
	src, err := kafka.NewSource(kafka.SourceOptions{
		Config:     kcfg,
		Topic:      cfg.Source.Topic,
		BatchLimit: cfg.Source.BatchLimit,
		MaxWait:    time.Duration(cfg.Source.FetchMaxWaitMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	snk, err := kafka.NewSink(kcfg)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return src, snk, nil
}

func fsyncMode(cfg cfgpkg.StorageConfig) (pebblestore.FsyncMode, time.Duration, error) {
	switch cfg.Fsync {
	case "", "interval":
		return pebblestore.FsyncModeInterval, time.Duration(cfg.FsyncIntervalMs) * time.Millisecond, nil
	case "always":
		return pebblestore.FsyncModeAlways, 0, nil
	case "never":
		return pebblestore.FsyncModeNever, 0, nil
	default:
		return 0, 0, fmt.Errorf("invalid fsync mode %q; use always|interval|never", cfg.Fsync)
	}
}
