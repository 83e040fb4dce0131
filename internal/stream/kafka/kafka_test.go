package kafka

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).validate(); err == nil {
		t.Fatal("expected error for empty broker list")
	}
	if err := (Config{Brokers: []string{"localhost:9092"}}).validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBuildSASLMechanism(t *testing.T) {
	for _, mech := range []string{"plain", "scram-sha-256", "scram-sha-512"} {
		m, err := buildSASLMechanism(&SASLConfig{Mechanism: mech, User: "u", Password: "p"})
		if err != nil {
			t.Fatalf("%s: %v", mech, err)
		}
		if m == nil {
			t.Fatalf("%s: nil mechanism", mech)
		}
	}
	if _, err := buildSASLMechanism(&SASLConfig{Mechanism: "digest-md5"}); err == nil {
		t.Fatal("expected error for unsupported mechanism")
	}
}

func TestOffsetTokenRoundTrip(t *testing.T) {
	for _, off := range []int64{0, 1, 42, 1 << 40} {
		got, err := offsetFromToken(tokenFromOffset(off))
		if err != nil {
			t.Fatalf("offset %d: %v", off, err)
		}
		if got != off {
			t.Fatalf("offset %d round-tripped to %d", off, got)
		}
	}
	if _, err := offsetFromToken([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short token")
	}
}

func TestNewSourceRejectsBadOptions(t *testing.T) {
	if _, err := NewSource(SourceOptions{Topic: "sessions"}); err == nil {
		t.Fatal("expected error for missing brokers")
	}
	if _, err := NewSource(SourceOptions{Config: Config{Brokers: []string{"localhost:9092"}}}); err == nil {
		t.Fatal("expected error for missing topic")
	}
}

func TestSourceOptionDefaults(t *testing.T) {
	s, err := NewSource(SourceOptions{
		Config: Config{Brokers: []string{"localhost:9092"}},
		Topic:  "sessions",
	})
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	defer s.Close()
	if s.opts.BatchLimit != 256 {
		t.Fatalf("BatchLimit=%d", s.opts.BatchLimit)
	}
	if s.opts.MaxWait != 500*time.Millisecond {
		t.Fatalf("MaxWait=%v", s.opts.MaxWait)
	}
}
