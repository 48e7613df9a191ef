package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/store"
)

// UpsertMessage inserts or updates a message snapshot along with its label
// associations and attachment metadata.
func (s *DB) UpsertMessage(ctx context.Context, msg *domain.Message, accountID string) error {
	toJSON, err := json.Marshal(msg.To)
	if err != nil {
		return fmt.Errorf("failed to marshal To addresses: %w", err)
	}
	ccJSON, err := json.Marshal(msg.CC)
	if err != nil {
		return fmt.Errorf("failed to marshal CC addresses: %w", err)
	}
	bccJSON, err := json.Marshal(msg.BCC)
	if err != nil {
		return fmt.Errorf("failed to marshal BCC addresses: %w", err)
	}

	var fromAddr, fromName string
	if msg.From != nil {
		fromAddr = msg.From.Email
		fromName = msg.From.Name
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, account_id, thread_id, from_addr, from_name,
			to_addrs, cc_addrs, bcc_addrs, subject, body_text, body_html, date, size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			thread_id  = excluded.thread_id,
			from_addr  = excluded.from_addr,
			from_name  = excluded.from_name,
			to_addrs   = excluded.to_addrs,
			cc_addrs   = excluded.cc_addrs,
			bcc_addrs  = excluded.bcc_addrs,
			subject    = excluded.subject,
			body_text  = excluded.body_text,
			body_html  = excluded.body_html,
			date       = excluded.date,
			size       = excluded.size`,
		msg.ID, accountID, msg.ThreadID, fromAddr, fromName,
		string(toJSON), string(ccJSON), string(bccJSON),
		msg.Subject, msg.Body.Text, msg.Body.HTML,
		msg.Date.Format(time.RFC3339), msg.Size,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}

	// Replace label associations.
	if _, err := tx.ExecContext(ctx, `DELETE FROM message_labels WHERE message_id = ?`, msg.ID); err != nil {
		return fmt.Errorf("failed to delete message labels: %w", err)
	}
	for _, labelID := range msg.LabelIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO message_labels (message_id, label_id) VALUES (?, ?)`,
			msg.ID, labelID); err != nil {
			return fmt.Errorf("failed to insert message label: %w", err)
		}
	}

	// Replace attachment metadata.
	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE message_id = ?`, msg.ID); err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}
	for _, att := range msg.Attachments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attachments (message_id, filename, mime_type, size) VALUES (?, ?, ?, ?)`,
			msg.ID, att.Filename, att.MIMEType, att.Size); err != nil {
			return fmt.Errorf("failed to insert attachment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message upsert: %w", err)
	}
	return nil
}

// GetMessage retrieves a single message snapshot by ID, including its labels
// and attachment metadata.
func (s *DB) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	var fromAddr, fromName string
	var toJSON, ccJSON, bccJSON string
	var dateStr string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, thread_id, from_addr, from_name, to_addrs, cc_addrs, bcc_addrs,
			subject, body_text, body_html, date, size
		FROM messages WHERE id = ?`, id,
	).Scan(
		&m.ID, &m.ThreadID, &fromAddr, &fromName, &toJSON, &ccJSON, &bccJSON,
		&m.Subject, &m.Body.Text, &m.Body.HTML, &dateStr, &m.Size,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	if fromAddr != "" || fromName != "" {
		m.From = &domain.Address{Name: fromName, Email: fromAddr}
	}
	if err := unmarshalAddresses(toJSON, &m.To); err != nil {
		return nil, fmt.Errorf("failed to unmarshal To addresses: %w", err)
	}
	if err := unmarshalAddresses(ccJSON, &m.CC); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CC addresses: %w", err)
	}
	if err := unmarshalAddresses(bccJSON, &m.BCC); err != nil {
		return nil, fmt.Errorf("failed to unmarshal BCC addresses: %w", err)
	}

	parsedDate, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message date: %w", err)
	}
	m.Date = parsedDate

	if m.LabelIDs, err = s.loadLabelIDs(ctx, id); err != nil {
		return nil, err
	}
	if m.Attachments, err = s.loadAttachments(ctx, id); err != nil {
		return nil, err
	}

	return &m, nil
}

// ListMessages returns a summary list of message snapshots, optionally
// filtered by label. Bodies and attachments are not loaded.
func (s *DB) ListMessages(ctx context.Context, opts store.ListMessageOptions) ([]domain.Message, error) {
	var query string
	var args []any

	if opts.LabelID != "" {
		query = `
			SELECT m.id, m.thread_id, m.from_addr, m.from_name, m.subject, m.date, m.size
			FROM messages m
			JOIN message_labels ml ON ml.message_id = m.id
			WHERE m.account_id = ? AND ml.label_id = ?
			ORDER BY m.date DESC`
		args = append(args, opts.AccountID, opts.LabelID)
	} else {
		query = `
			SELECT m.id, m.thread_id, m.from_addr, m.from_name, m.subject, m.date, m.size
			FROM messages m
			WHERE m.account_id = ?
			ORDER BY m.date DESC`
		args = append(args, opts.AccountID)
	}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var fromAddr, fromName string
		var dateStr string

		if err := rows.Scan(&m.ID, &m.ThreadID, &fromAddr, &fromName, &m.Subject, &dateStr, &m.Size); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}

		if fromAddr != "" || fromName != "" {
			m.From = &domain.Address{Name: fromName, Email: fromAddr}
		}
		parsedDate, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse message date: %w", err)
		}
		m.Date = parsedDate
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// DeleteMessage removes a message snapshot by ID.
func (s *DB) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}

// SetMessageLabels replaces the label set for a message snapshot.
func (s *DB) SetMessageLabels(ctx context.Context, messageID string, labelIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM message_labels WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("failed to delete message labels: %w", err)
	}

	for _, labelID := range labelIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO message_labels (message_id, label_id) VALUES (?, ?)`,
			messageID, labelID); err != nil {
			return fmt.Errorf("failed to insert message label: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit label update: %w", err)
	}
	return nil
}

func (s *DB) loadLabelIDs(ctx context.Context, messageID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label_id FROM message_labels WHERE message_id = ?`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query message labels: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan message label: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message labels: %w", err)
	}
	return ids, nil
}

func (s *DB) loadAttachments(ctx context.Context, messageID string) ([]domain.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, mime_type, size FROM attachments WHERE message_id = ?`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.Filename, &a.MIMEType, &a.Size); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}
	return attachments, nil
}

func unmarshalAddresses(data string, dst *[]domain.Address) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), dst)
}
