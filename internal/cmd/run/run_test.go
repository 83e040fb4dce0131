package runcmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	cfgpkg "sessionflow/internal/config"
	"sessionflow/internal/runtime"
	pebblestore "sessionflow/internal/storage/pebble"
	"sessionflow/internal/stream/embedded"
)

func testConfig(dataDir string) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = dataDir
	cfg.Storage.Fsync = "never"
	cfg.Storage.SourcePartitions = 2
	cfg.Storage.DestinationPartitions = 2
	cfg.Source.StartPolicy = "earliest"
	cfg.Source.FetchMaxWaitMs = 10
	cfg.Pipeline.EmptyBackoffMs = 10
	cfg.Log.Level = "error"
	return cfg
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Backend = "carrier-pigeon"
	if err := Run(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg = testConfig(t.TempDir())
	cfg.Routes = map[string]string{"USA": "only-usa"}
	if err := Run(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatal("expected error for incomplete routes")
	}

	cfg = testConfig(t.TempDir())
	cfg.Source.StartPolicy = "afresh"
	if err := Run(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatal("expected error for bad start policy")
	}
}

func TestRunEmbeddedEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	// Seed the source topic before the pipeline starts.
	rt, err := runtime.Open(runtime.Options{DataDir: dir + "/store", Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if _, err := rt.EnsureTopic(cfg.Source.Topic, cfg.Storage.SourcePartitions); err != nil {
		t.Fatalf("ensure topic: %v", err)
	}
	sink := embedded.NewSink(rt)
	payloads := map[string]string{
		"s-usa":  `{"session_id":"s-usa","country":"USA","browse_history":[{"product_code":"P1","quantity":2,"in_shopping_cart":true}]}`,
		"s-intl": `{"session_id":"s-intl","country":"Japan","browse_history":[{"product_code":"P2","quantity":1,"in_shopping_cart":false}]}`,
	}
	for key, payload := range payloads {
		if _, err := sink.Publish(context.Background(), cfg.Source.Topic, key, []byte(payload)); err != nil {
			t.Fatalf("seed publish: %v", err)
		}
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close runtime: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Run(ctx, Options{Config: cfg}); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Reopen the store and check both destinations.
	rt, err = runtime.Open(runtime.Options{DataDir: dir + "/store", Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("reopen runtime: %v", err)
	}
	defer rt.Close()

	got := map[string]string{}
	for _, topic := range []string{cfg.Routes["USA"], cfg.Routes["International"]} {
		meta, ok := rt.TopicMeta(topic)
		if !ok {
			t.Fatalf("destination topic %q not created", topic)
		}
		for p := 0; p < meta.Partitions; p++ {
			lg, err := rt.OpenLog(topic, uint32(p))
			if err != nil {
				t.Fatalf("open log: %v", err)
			}
			items, _, err := lg.ReadFrom(1, 100)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			for _, it := range items {
				var out map[string]any
				if err := json.Unmarshal(it.Payload, &out); err != nil {
					t.Fatalf("output payload: %v", err)
				}
				got[out["session_id"].(string)] = topic
				if _, ok := out["processing_timestamp"]; !ok {
					t.Fatalf("missing processing_timestamp in %s", it.Payload)
				}
			}
		}
	}
	if got["s-usa"] != cfg.Routes["USA"] {
		t.Fatalf("s-usa routed to %q", got["s-usa"])
	}
	if got["s-intl"] != cfg.Routes["International"] {
		t.Fatalf("s-intl routed to %q", got["s-intl"])
	}
}

func TestFsyncModeParsing(t *testing.T) {
	for in, want := range map[string]pebblestore.FsyncMode{
		"":         pebblestore.FsyncModeInterval,
		"interval": pebblestore.FsyncModeInterval,
		"always":   pebblestore.FsyncModeAlways,
		"never":    pebblestore.FsyncModeNever,
	} {
		mode, _, err := fsyncMode(cfgpkg.StorageConfig{Fsync: in})
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if mode != want {
			t.Fatalf("%q: mode %v", in, mode)
		}
	}
	if _, _, err := fsyncMode(cfgpkg.StorageConfig{Fsync: "sometimes"}); err == nil {
		t.Fatal("expected error for bad fsync mode")
	}
	if _, _, err := fsyncMode(cfgpkg.StorageConfig{Fsync: "sometimes"}); err == nil || !strings.Contains(err.Error(), "fsync") {
		t.Fatal("error should name the fsync flag")
	}
}
