// Package log provides sessionflow's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that routes records through the
// formatter/outputs pipeline, keeping consistent output across the codebase.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("pipeline"), log.Str("topic", "sessions"))
//	l.Info("loop started", log.Int("partition", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config holding a level
// and a format (text or json).
//
// # Interop
//
// RedirectStdLog points the standard library logger (used by Pebble) at a
// Logger so third-party output shares the same format and sinks.
package log
