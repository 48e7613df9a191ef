package sqlite

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/gmailkit/internal/domain"
)

const labelColumns = `id, account_id, name, type,
	messages_total, messages_unread, threads_total, threads_unread,
	message_list_visibility, label_list_visibility, text_color, background_color`

// UpsertLabel inserts or updates a label.
func (s *DB) UpsertLabel(ctx context.Context, label *domain.Label) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (`+labelColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, account_id) DO UPDATE SET
			name             = excluded.name,
			type             = excluded.type,
			messages_total   = excluded.messages_total,
			messages_unread  = excluded.messages_unread,
			threads_total    = excluded.threads_total,
			threads_unread   = excluded.threads_unread,
			message_list_visibility = excluded.message_list_visibility,
			label_list_visibility   = excluded.label_list_visibility,
			text_color       = excluded.text_color,
			background_color = excluded.background_color`,
		label.ID, label.AccountID, label.Name, label.Type,
		label.MessagesTotal, label.MessagesUnread, label.ThreadsTotal, label.ThreadsUnread,
		label.MessageListVisibility, label.LabelListVisibility,
		label.TextColor, label.BackgroundColor,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert label: %w", err)
	}
	return nil
}

// ListLabels returns all labels for an account, ordered by name.
func (s *DB) ListLabels(ctx context.Context, accountID string) ([]domain.Label, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+labelColumns+` FROM labels WHERE account_id = ? ORDER BY name`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var labels []domain.Label
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(
			&l.ID, &l.AccountID, &l.Name, &l.Type,
			&l.MessagesTotal, &l.MessagesUnread, &l.ThreadsTotal, &l.ThreadsUnread,
			&l.MessageListVisibility, &l.LabelListVisibility,
			&l.TextColor, &l.BackgroundColor,
		); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate labels: %w", err)
	}

	return labels, nil
}

// ReplaceLabels swaps an account's cached label set for the given one, so
// remotely deleted labels disappear from the cache.
func (s *DB) ReplaceLabels(ctx context.Context, accountID string, labels []domain.Label) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("failed to clear labels: %w", err)
	}

	for _, l := range labels {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO labels (`+labelColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, accountID, l.Name, l.Type,
			l.MessagesTotal, l.MessagesUnread, l.ThreadsTotal, l.ThreadsUnread,
			l.MessageListVisibility, l.LabelListVisibility,
			l.TextColor, l.BackgroundColor,
		)
		if err != nil {
			return fmt.Errorf("failed to insert label %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit label replacement: %w", err)
	}
	return nil
}
