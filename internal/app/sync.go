// Package app holds the sync service that mirrors remote mailbox state into
// the local cache.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/client"
	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/label"
	"github.com/lu-zhengda/gmailkit/internal/store"
)

// SyncService pulls labels and recent messages for a single account through
// the client into the local store.
type SyncService struct {
	store     store.Store
	client    *client.Client
	accountID string
	log       *slog.Logger
}

// NewSyncService creates a SyncService for the given account.
func NewSyncService(s store.Store, c *client.Client, accountID string, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{store: s, client: c, accountID: accountID, log: logger}
}

// Sync refreshes the label cache and snapshots up to count recent messages.
func (s *SyncService) Sync(ctx context.Context, count int) error {
	if err := s.syncLabels(ctx); err != nil {
		return err
	}

	fetched, err := s.syncMessages(ctx, count)
	if err != nil {
		return err
	}

	if err := s.store.SetSyncState(ctx, &store.SyncState{
		AccountID: s.accountID,
		LastSync:  time.Now().Unix(),
		Messages:  int64(fetched),
	}); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}

	s.log.Info("sync complete", "account", s.accountID, "messages", fetched)
	return nil
}

func (s *SyncService) syncLabels(ctx context.Context) error {
	if err := s.client.RefreshLabels(ctx); err != nil {
		return fmt.Errorf("failed to refresh labels: %w", err)
	}
	tree, err := s.client.Labels(ctx)
	if err != nil {
		return err
	}

	var labels []domain.Label
	var walk func(nodes []*label.Node) error
	walk = func(nodes []*label.Node) error {
		for _, n := range nodes {
			entity, err := n.Label(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch label %s: %w", n.ID(), err)
			}
			info := entity.Info
			info.AccountID = s.accountID
			labels = append(labels, info)
			if err := walk(n.Children()); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(tree.Roots()); err != nil {
		return err
	}

	if err := s.store.ReplaceLabels(ctx, s.accountID, labels); err != nil {
		return fmt.Errorf("failed to cache labels: %w", err)
	}

	s.log.Info("labels cached", "account", s.accountID, "count", len(labels))
	return nil
}

func (s *SyncService) syncMessages(ctx context.Context, count int) (int, error) {
	messages, err := s.client.Messages().Limit(int64(count)).Execute(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch recent messages: %w", err)
	}

	for _, m := range messages {
		if err := s.store.UpsertMessage(ctx, &m.Message, s.accountID); err != nil {
			return 0, fmt.Errorf("failed to cache message %s: %w", m.ID, err)
		}
	}

	s.log.Info("messages cached", "account", s.accountID, "count", len(messages))
	return len(messages), nil
}
