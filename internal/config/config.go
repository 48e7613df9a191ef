package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all gmailkit configuration.
type Config struct {
	Query    QueryConfig    `toml:"query"`
	Sync     SyncConfig     `toml:"sync"`
	Accounts AccountsConfig `toml:"accounts"`
	Gmail    GmailConfig    `toml:"gmail"`
}

// GmailConfig holds Gmail OAuth credentials.
// Users supply their own via config file or env vars.
type GmailConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// QueryConfig tunes search execution.
type QueryConfig struct {
	// BatchSize is the chunk size for batched detail fetches; negative
	// disables batching.
	BatchSize int `toml:"batch_size"`
	// BatchDelay is the minimum spacing between batch starts, as a
	// duration string like "500ms".
	BatchDelay string `toml:"batch_delay"`
	// LegacyTruncation truncates query operands at the first whitespace.
	LegacyTruncation bool `toml:"legacy_truncation"`
}

// SyncConfig holds cache synchronization settings.
type SyncConfig struct {
	InitialCount int `toml:"initial_count"`
}

// AccountsConfig holds account selection settings.
type AccountsConfig struct {
	Default string `toml:"default"`
}

func defaults() Config {
	return Config{
		Query: QueryConfig{
			BatchSize:  100,
			BatchDelay: "1s",
		},
		Sync: SyncConfig{
			InitialCount: 500,
		},
	}
}

// Load reads config from path. If path is empty or missing, returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the gmailkit config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gmailkit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gmailkit")
}

// DataDir returns the gmailkit data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "gmailkit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "gmailkit")
}
