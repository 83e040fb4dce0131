package config

import (
	"os"
	"strings"
	"testing"
)

func TestDefaultDataDirXDGOverride(t *testing.T) {
	original := os.Getenv("XDG_DATA_HOME")
	t.Cleanup(func() {
		if original != "" {
			os.Setenv("XDG_DATA_HOME", original)
		} else {
			os.Unsetenv("XDG_DATA_HOME")
		}
	})
	os.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/sessionflow" {
		t.Fatalf("data dir %q", got)
	}
}

func TestDefaultDataDirNeverEmpty(t *testing.T) {
	original := os.Getenv("XDG_DATA_HOME")
	t.Cleanup(func() {
		if original != "" {
			os.Setenv("XDG_DATA_HOME", original)
		} else {
			os.Unsetenv("XDG_DATA_HOME")
		}
	})
	os.Unsetenv("XDG_DATA_HOME")
	got := DefaultDataDir()
	if got == "" {
		t.Fatal("empty data dir")
	}
	if !strings.Contains(strings.ToLower(got), "sessionflow") && got != "./data" {
		t.Fatalf("unexpected data dir %q", got)
	}
}
