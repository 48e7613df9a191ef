// Package cli wires the command-line surface: accounts, label management,
// search, bulk actions and cache sync.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gmailkit/internal/client"
	"github.com/lu-zhengda/gmailkit/internal/config"
	"github.com/lu-zhengda/gmailkit/internal/provider/gmail"
	"github.com/lu-zhengda/gmailkit/internal/store"
	"github.com/lu-zhengda/gmailkit/internal/store/sqlite"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for all commands.
	jsonFlag bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "gmailkit",
		Short:   "Structured Gmail mailbox client",
		Long:    "A Gmail client with a typed search query language and hierarchical label management.",
		Version: version,
	}
	root.SetVersionTemplate(fmt.Sprintf("gmailkit %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.AddCommand(newAccountCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newLabelsCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newBulkCmd())
	root.AddCommand(newReadCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB creates the data directory and opens the SQLite database.
func openDB() (*sqlite.DB, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gmailkit.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveAccountID determines which account to use based on config default
// or falls back to the first account in the database.
func resolveAccountID(db *sqlite.DB, cfg *config.Config) (string, error) {
	if cfg.Accounts.Default != "" {
		return cfg.Accounts.Default, nil
	}

	accounts, err := db.ListAccounts(context.Background())
	if err != nil {
		return "", fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("no accounts configured; run 'gmailkit account add' first")
	}
	return accounts[0].ID, nil
}

// resolveGmailCredentials sets Gmail OAuth credentials from the first
// available source: config file, then environment variables.
func resolveGmailCredentials(cfg *config.Config) error {
	if cfg.Gmail.ClientID != "" && cfg.Gmail.ClientSecret != "" {
		gmail.SetCredentials(cfg.Gmail.ClientID, cfg.Gmail.ClientSecret)
		return nil
	}

	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		gmail.SetCredentials(clientID, clientSecret)
		return nil
	}

	return gmail.EnsureCredentials()
}

// clientConfig maps the file configuration onto client tuning knobs.
func clientConfig(cfg *config.Config) (client.Config, error) {
	out := client.Config{
		BatchSize:        cfg.Query.BatchSize,
		LegacyTruncation: cfg.Query.LegacyTruncation,
	}
	if cfg.Query.BatchDelay != "" {
		delay, err := time.ParseDuration(cfg.Query.BatchDelay)
		if err != nil {
			return client.Config{}, fmt.Errorf("failed to parse query.batch_delay: %w", err)
		}
		out.BatchDelay = delay
	}
	return out, nil
}

// newClient builds an authenticated-on-demand client for the given account
// flag, resolving the account through config and the local database.
func newClient(accountFlag string) (*client.Client, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	if err := resolveGmailCredentials(cfg); err != nil {
		return nil, "", err
	}

	accountID := accountFlag
	if accountID == "" {
		db, err := openDB()
		if err != nil {
			return nil, "", err
		}
		accountID, err = resolveAccountID(db, cfg)
		db.Close()
		if err != nil {
			return nil, "", err
		}
	}

	ccfg, err := clientConfig(cfg)
	if err != nil {
		return nil, "", err
	}

	tokenStore := store.NewKeyringTokenStore()
	svc := gmail.New(accountID, tokenStore)
	return client.New(svc, ccfg), accountID, nil
}
