package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Backend names for the source/destination logs.
const (
	BackendEmbedded = "embedded"
	BackendKafka    = "kafka"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Backend  string            `json:"backend"`
	Source   SourceConfig      `json:"source"`
	Routes   map[string]string `json:"routes"`
	Pipeline PipelineConfig    `json:"pipeline"`
	Storage  StorageConfig     `json:"storage"`
	Kafka    KafkaConfig       `json:"kafka"`
	Log      LogConfig         `json:"log"`
}

// SourceConfig describes the topic the pipeline consumes.
type SourceConfig struct {
	Topic          string `json:"topic"`
	StartPolicy    string `json:"startPolicy"` // "latest" or "earliest"
	BatchLimit     int    `json:"batchLimit"`
	FetchMaxWaitMs int    `json:"fetchMaxWaitMs"`
}

// PipelineConfig tunes the per-partition processing loops.
type PipelineConfig struct {
	EmptyBackoffMs     int    `json:"emptyBackoffMs"`
	PublishMaxAttempts int    `json:"publishMaxAttempts"`
	PublishRetryBaseMs int    `json:"publishRetryBaseMs"`
	Filter             string `json:"filter"`
}

// StorageConfig configures the embedded backend.
type StorageConfig struct {
	DataDir               string `json:"dataDir"`
	Fsync                 string `json:"fsync"` // "always", "interval", "never"
	FsyncIntervalMs       int    `json:"fsyncIntervalMs"`
	SourcePartitions      int    `json:"sourcePartitions"`
	DestinationPartitions int    `json:"destinationPartitions"`
	RetentionHours        int    `json:"retentionHours"`
}

// KafkaConfig configures the kafka backend.
type KafkaConfig struct {
	Brokers       []string `json:"brokers"`
	TLS           bool     `json:"tls"`
	SASLMechanism string   `json:"saslMechanism"`
	SASLUser      string   `json:"saslUser"`
	SASLPassword  string   `json:"saslPassword"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "json" or "text"
}

// Default returns built-in defaults: the embedded backend consuming
// shopping-sessions from the tail, routing USA traffic and everything else
// to two destination topics.
func Default() Config {
	return Config{
		Backend: BackendEmbedded,
		Source: SourceConfig{
			Topic:          "shopping-sessions",
			StartPolicy:    "latest",
			BatchLimit:     256,
			FetchMaxWaitMs: 500,
		},
		Routes: map[string]string{
			"USA":           "sessions-usa",
			"International": "sessions-international",
		},
		Pipeline: PipelineConfig{
			EmptyBackoffMs:     250,
			PublishMaxAttempts: 3,
			PublishRetryBaseMs: 50,
		},
		Storage: StorageConfig{
			Fsync:                 "interval",
			FsyncIntervalMs:       50,
			SourcePartitions:      4,
			DestinationPartitions: 4,
			RetentionHours:        72,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults. File values are merged over the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with. Route
// completeness is checked separately by the routing table.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendEmbedded, BackendKafka:
	default:
		return fmt.Errorf("config: unknown backend %q (use embedded|kafka)", c.Backend)
	}
	if c.Source.Topic == "" {
		return fmt.Errorf("config: source topic is required")
	}
	switch c.Source.StartPolicy {
	case "", "latest", "earliest":
	default:
		return fmt.Errorf("config: unknown start policy %q (use latest|earliest)", c.Source.StartPolicy)
	}
	if c.Backend == BackendKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka backend requires at least one broker")
	}
	if c.Backend == BackendEmbedded {
		if c.Storage.SourcePartitions <= 0 {
			return fmt.Errorf("config: sourcePartitions must be positive")
		}
		if c.Storage.DestinationPartitions <= 0 {
			return fmt.Errorf("config: destinationPartitions must be positive")
		}
	}
	return nil
}
