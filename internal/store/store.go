package store

import (
	"context"

	"github.com/lu-zhengda/gmailkit/internal/domain"
)

// Store defines the local cache interface. It holds account records, label
// metadata and message snapshots pulled down by the sync service.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// Labels
	UpsertLabel(ctx context.Context, label *domain.Label) error
	ListLabels(ctx context.Context, accountID string) ([]domain.Label, error)
	ReplaceLabels(ctx context.Context, accountID string, labels []domain.Label) error

	// Messages
	UpsertMessage(ctx context.Context, msg *domain.Message, accountID string) error
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	ListMessages(ctx context.Context, opts ListMessageOptions) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	SetMessageLabels(ctx context.Context, messageID string, labelIDs []string) error

	// Search
	SearchMessages(ctx context.Context, query string, accountID string) ([]domain.Message, error)

	// Sync state
	GetSyncState(ctx context.Context, accountID string) (*SyncState, error)
	SetSyncState(ctx context.Context, state *SyncState) error

	// Lifecycle
	Close() error
}

// ListMessageOptions configures message listing queries.
type ListMessageOptions struct {
	AccountID string
	LabelID   string
	Limit     int
	Offset    int
}

// SyncState tracks the synchronization progress for an account.
type SyncState struct {
	AccountID string
	LastSync  int64 // Unix timestamp
	Messages  int64 // snapshots cached by the last sync
}
