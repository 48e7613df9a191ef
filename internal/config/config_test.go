package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Query.BatchSize != 100 {
		t.Errorf("batch_size = %d, want 100", cfg.Query.BatchSize)
	}
	if cfg.Query.BatchDelay != "1s" {
		t.Errorf("batch_delay = %q, want 1s", cfg.Query.BatchDelay)
	}
	if cfg.Sync.InitialCount != 500 {
		t.Errorf("initial_count = %d, want 500", cfg.Sync.InitialCount)
	}
	if cfg.Query.LegacyTruncation {
		t.Error("legacy_truncation defaults to true, want false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error for missing file: %v", err)
	}
	if cfg.Query.BatchSize != 100 {
		t.Errorf("batch_size = %d, want defaults", cfg.Query.BatchSize)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[query]
batch_size = 25
batch_delay = "250ms"
legacy_truncation = true

[sync]
initial_count = 50

[accounts]
default = "work"

[gmail]
client_id = "id-123"
client_secret = "secret-456"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Query.BatchSize != 25 {
		t.Errorf("batch_size = %d, want 25", cfg.Query.BatchSize)
	}
	if cfg.Query.BatchDelay != "250ms" {
		t.Errorf("batch_delay = %q, want 250ms", cfg.Query.BatchDelay)
	}
	if !cfg.Query.LegacyTruncation {
		t.Error("legacy_truncation = false, want true")
	}
	if cfg.Sync.InitialCount != 50 {
		t.Errorf("initial_count = %d, want 50", cfg.Sync.InitialCount)
	}
	if cfg.Accounts.Default != "work" {
		t.Errorf("accounts.default = %q, want work", cfg.Accounts.Default)
	}
	if cfg.Gmail.ClientID != "id-123" || cfg.Gmail.ClientSecret != "secret-456" {
		t.Errorf("gmail creds = %q/%q", cfg.Gmail.ClientID, cfg.Gmail.ClientSecret)
	}
}

func TestLoadBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[query\nbatch_size = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil for malformed toml")
	}
}
