package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays SESSIONFLOW_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SESSIONFLOW_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("SESSIONFLOW_SOURCE_TOPIC"); v != "" {
		cfg.Source.Topic = v
	}
	if v := os.Getenv("SESSIONFLOW_START_POLICY"); v != "" {
		cfg.Source.StartPolicy = v
	}
	if v := os.Getenv("SESSIONFLOW_BATCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Source.BatchLimit = n
		}
	}
	if v := os.Getenv("SESSIONFLOW_FETCH_MAX_WAIT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Source.FetchMaxWaitMs = n
		}
	}
	if v := os.Getenv("SESSIONFLOW_ROUTE_USA"); v != "" {
		if cfg.Routes == nil {
			cfg.Routes = map[string]string{}
		}
		cfg.Routes["USA"] = v
	}
	if v := os.Getenv("SESSIONFLOW_ROUTE_INTERNATIONAL"); v != "" {
		if cfg.Routes == nil {
			cfg.Routes = map[string]string{}
		}
		cfg.Routes["International"] = v
	}
	if v := os.Getenv("SESSIONFLOW_EMPTY_BACKOFF_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.EmptyBackoffMs = n
		}
	}
	if v := os.Getenv("SESSIONFLOW_PUBLISH_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.PublishMaxAttempts = n
		}
	}
	if v := os.Getenv("SESSIONFLOW_PUBLISH_RETRY_BASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.PublishRetryBaseMs = n
		}
	}
	if v := os.Getenv("SESSIONFLOW_FILTER"); v != "" {
		cfg.Pipeline.Filter = v
	}
	if v := os.Getenv("SESSIONFLOW_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SESSIONFLOW_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	if v := os.Getenv("SESSIONFLOW_RETENTION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.RetentionHours = n
		}
	}
	if v := os.Getenv("SESSIONFLOW_KAFKA_BROKERS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Kafka.Brokers = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, p)
			}
		}
	}
	if v := os.Getenv("SESSIONFLOW_KAFKA_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.TLS = b
		}
	}
	if v := os.Getenv("SESSIONFLOW_KAFKA_SASL_MECHANISM"); v != "" {
		cfg.Kafka.SASLMechanism = v
	}
	if v := os.Getenv("SESSIONFLOW_KAFKA_SASL_USER"); v != "" {
		cfg.Kafka.SASLUser = v
	}
	if v := os.Getenv("SESSIONFLOW_KAFKA_SASL_PASSWORD"); v != "" {
		cfg.Kafka.SASLPassword = v
	}
	if v := os.Getenv("SESSIONFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SESSIONFLOW_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
