package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Backend != BackendEmbedded {
		t.Fatalf("default backend %q", cfg.Backend)
	}
	if cfg.Source.Topic != "shopping-sessions" {
		t.Fatalf("default source topic %q", cfg.Source.Topic)
	}
	if cfg.Routes["USA"] == "" || cfg.Routes["International"] == "" {
		t.Fatalf("default routes incomplete: %v", cfg.Routes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sessionflow.json")
	data := []byte(`{"backend":"kafka","source":{"topic":"sessions-in","startPolicy":"earliest"},"kafka":{"brokers":["broker-1:9092"]},"routes":{"USA":"us","International":"intl"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendKafka {
		t.Fatalf("backend %q", cfg.Backend)
	}
	if cfg.Source.Topic != "sessions-in" || cfg.Source.StartPolicy != "earliest" {
		t.Fatalf("source %+v", cfg.Source)
	}
	// Unset file fields keep their defaults.
	if cfg.Source.BatchLimit != 256 {
		t.Fatalf("batch limit %d", cfg.Source.BatchLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendEmbedded {
		t.Fatalf("backend %q", cfg.Backend)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("SESSIONFLOW_BACKEND", "kafka")
	os.Setenv("SESSIONFLOW_SOURCE_TOPIC", "sessions-env")
	os.Setenv("SESSIONFLOW_KAFKA_BROKERS", "b1:9092, b2:9092")
	os.Setenv("SESSIONFLOW_PUBLISH_MAX_ATTEMPTS", "5")
	os.Setenv("SESSIONFLOW_ROUTE_USA", "env-usa")
	t.Cleanup(func() {
		os.Unsetenv("SESSIONFLOW_BACKEND")
		os.Unsetenv("SESSIONFLOW_SOURCE_TOPIC")
		os.Unsetenv("SESSIONFLOW_KAFKA_BROKERS")
		os.Unsetenv("SESSIONFLOW_PUBLISH_MAX_ATTEMPTS")
		os.Unsetenv("SESSIONFLOW_ROUTE_USA")
	})
	FromEnv(&cfg)
	if cfg.Backend != "kafka" {
		t.Fatalf("backend %q", cfg.Backend)
	}
	if cfg.Source.Topic != "sessions-env" {
		t.Fatalf("topic %q", cfg.Source.Topic)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Fatalf("brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Pipeline.PublishMaxAttempts != 5 {
		t.Fatalf("attempts %d", cfg.Pipeline.PublishMaxAttempts)
	}
	if cfg.Routes["USA"] != "env-usa" {
		t.Fatalf("routes %v", cfg.Routes)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := Default()
	cfg.Backend = "memory"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg = Default()
	cfg.Source.Topic = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty topic")
	}

	cfg = Default()
	cfg.Source.StartPolicy = "afresh"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bad start policy")
	}

	cfg = Default()
	cfg.Backend = BackendKafka
	cfg.Kafka.Brokers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for kafka without brokers")
	}

	cfg = Default()
	cfg.Storage.DestinationPartitions = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero destination partitions")
	}
}
