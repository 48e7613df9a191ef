package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/domain"
)

// SearchMessages performs a full-text search across cached snapshots using FTS5.
func (s *DB) SearchMessages(ctx context.Context, query string, accountID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.thread_id, m.from_addr, m.from_name, m.to_addrs, m.cc_addrs, m.bcc_addrs,
			m.subject, m.body_text, m.body_html, m.date, m.size
		FROM messages m
		JOIN messages_fts fts ON fts.rowid = m.rowid
		WHERE messages_fts MATCH ? AND m.account_id = ?
		ORDER BY rank`, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var fromAddr, fromName string
		var toJSON, ccJSON, bccJSON string
		var dateStr string

		if err := rows.Scan(
			&m.ID, &m.ThreadID, &fromAddr, &fromName, &toJSON, &ccJSON, &bccJSON,
			&m.Subject, &m.Body.Text, &m.Body.HTML, &dateStr, &m.Size,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
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

		if m.LabelIDs, err = s.loadLabelIDs(ctx, m.ID); err != nil {
			return nil, err
		}

		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}

	return messages, nil
}
