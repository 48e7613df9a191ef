package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/label"
	"github.com/lu-zhengda/gmailkit/internal/provider"
)

// Message pairs an immutable message snapshot with its resolved label and
// category entities and the mutation operations acting on it. Mutations
// re-fetch the snapshot so the caller always observes remote state.
type Message struct {
	domain.Message

	labels   []*label.Label
	category *label.Category
	c        *Client
}

// Labels returns the label entities attached to the message.
func (m *Message) Labels() []*label.Label { return m.labels }

// Category returns the message's category, or nil.
func (m *Message) Category() *label.Category { return m.category }

// Contains reports whether the message carries the given label or category.
// Any other argument type is an error.
func (m *Message) Contains(other any) (bool, error) {
	switch o := other.(type) {
	case *label.Label:
		return m.HasLabelID(o.ID()), nil
	case *label.Category:
		return m.category != nil && m.category.ID() == o.ID(), nil
	default:
		return false, fmt.Errorf("cannot test %T for membership in a message; must be *label.Label or *label.Category", other)
	}
}

// Refresh re-fetches the message and replaces the snapshot in place.
func (m *Message) Refresh(ctx context.Context) error {
	raw, err := m.c.svc.GetMessageRaw(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("failed to refresh message %s: %w", m.ID, err)
	}
	fresh, err := m.c.assemble(ctx, raw)
	if err != nil {
		return err
	}
	*m = *fresh
	return nil
}

// AddLabels attaches the given labels to the message.
func (m *Message) AddLabels(ctx context.Context, labels ...*label.Label) error {
	return m.modify(ctx, labelIDs(labels), nil)
}

// RemoveLabels detaches the given labels from the message.
func (m *Message) RemoveLabels(ctx context.Context, labels ...*label.Label) error {
	return m.modify(ctx, nil, labelIDs(labels))
}

// ChangeCategory moves the message into the given category bucket,
// displacing the current one.
func (m *Message) ChangeCategory(ctx context.Context, category *label.Category) error {
	var remove []string
	if m.category != nil {
		remove = []string{m.category.ID()}
	}
	return m.modify(ctx, []string{category.ID()}, remove)
}

// MarkRead toggles the UNREAD label.
func (m *Message) MarkRead(ctx context.Context, read bool) error {
	if read {
		return m.modify(ctx, nil, []string{domain.LabelUnread})
	}
	return m.modify(ctx, []string{domain.LabelUnread}, nil)
}

// MarkImportant toggles the IMPORTANT label.
func (m *Message) MarkImportant(ctx context.Context, important bool) error {
	if important {
		return m.modify(ctx, []string{domain.LabelImportant}, nil)
	}
	return m.modify(ctx, nil, []string{domain.LabelImportant})
}

// MarkStarred toggles the STARRED label.
func (m *Message) MarkStarred(ctx context.Context, starred bool) error {
	if starred {
		return m.modify(ctx, []string{domain.LabelStarred}, nil)
	}
	return m.modify(ctx, nil, []string{domain.LabelStarred})
}

// Archive removes the message from the inbox.
func (m *Message) Archive(ctx context.Context) error {
	return m.modify(ctx, nil, []string{domain.LabelInbox})
}

// Trash moves the message to trash.
func (m *Message) Trash(ctx context.Context) error {
	if err := m.c.svc.TrashMessage(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to trash message %s: %w", m.ID, err)
	}
	return m.Refresh(ctx)
}

// Untrash restores the message from trash.
func (m *Message) Untrash(ctx context.Context) error {
	if err := m.c.svc.UntrashMessage(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to untrash message %s: %w", m.ID, err)
	}
	return m.Refresh(ctx)
}

// Delete permanently removes the message.
func (m *Message) Delete(ctx context.Context) error {
	if err := m.c.svc.DeleteMessage(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", m.ID, err)
	}
	return nil
}

func (m *Message) modify(ctx context.Context, add, remove []string) error {
	if err := m.c.svc.ModifyMessage(ctx, m.ID, add, remove); err != nil {
		return fmt.Errorf("failed to modify message %s: %w", m.ID, err)
	}
	return m.Refresh(ctx)
}

func labelIDs(labels []*label.Label) []string {
	ids := make([]string, 0, len(labels))
	for _, l := range labels {
		ids = append(ids, l.ID())
	}
	return ids
}

// assemble builds a Message from a raw resource: the MIME payload is parsed
// into the snapshot and the raw label ids are resolved through the
// hierarchy into entities, enforcing the at-most-one-category invariant.
func (c *Client) assemble(ctx context.Context, raw *provider.RawMessage) (*Message, error) {
	snapshot, err := parseRaw(raw)
	if err != nil {
		return nil, err
	}

	labels, category, err := c.resolveLabels(ctx, raw.LabelIDs)
	if err != nil {
		return nil, err
	}

	return &Message{
		Message:  snapshot,
		labels:   labels,
		category: category,
		c:        c,
	}, nil
}

func (c *Client) resolveLabels(ctx context.Context, ids []string) ([]*label.Label, *label.Category, error) {
	var (
		labels   []*label.Label
		category *label.Category
	)
	for _, id := range ids {
		node, err := c.tree.ByID(id)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve label id %s: %w", id, err)
		}

		if node.Kind() == label.NodeCategory {
			if category != nil {
				return nil, nil, fmt.Errorf("message carries more than one category: %s and %s", category.ID(), id)
			}
			if category, err = node.Category(ctx); err != nil {
				return nil, nil, err
			}
			continue
		}

		entity, err := node.Label(ctx)
		if err != nil {
			return nil, nil, err
		}
		labels = append(labels, entity)
	}
	return labels, category, nil
}

// parseRaw parses a raw RFC 822 payload into a message snapshot. The
// timestamp comes from the resource's internal date, not the Date header.
func parseRaw(raw *provider.RawMessage) (domain.Message, error) {
	snapshot := domain.Message{
		ID:       raw.ID,
		ThreadID: raw.ThreadID,
		Size:     raw.SizeEstimate,
		Date:     time.UnixMilli(raw.InternalDate),
		LabelIDs: raw.LabelIDs,
	}

	if len(raw.Raw) == 0 {
		return snapshot, nil
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw.Raw))
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to parse message %s: %w", raw.ID, err)
	}

	header := mr.Header
	snapshot.Subject, _ = header.Subject()
	snapshot.From = singleAddress(header, "From")
	snapshot.To = addressList(header, "To")
	snapshot.CC = addressList(header, "Cc")
	snapshot.BCC = addressList(header, "Bcc")

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Message{}, fmt.Errorf("failed to parse message %s body: %w", raw.ID, err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return domain.Message{}, fmt.Errorf("failed to read message %s body: %w", raw.ID, err)
			}
			switch contentType {
			case "text/plain":
				snapshot.Body.Text = appendBodyPart(snapshot.Body.Text, string(body))
			case "text/html":
				snapshot.Body.HTML = appendBodyPart(snapshot.Body.HTML, string(body))
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			size, err := io.Copy(io.Discard, part.Body)
			if err != nil {
				return domain.Message{}, fmt.Errorf("failed to read attachment of message %s: %w", raw.ID, err)
			}
			snapshot.Attachments = append(snapshot.Attachments, domain.Attachment{
				Filename: filename,
				MIMEType: contentType,
				Size:     size,
			})
		}
	}

	return snapshot, nil
}

func appendBodyPart(existing, part string) string {
	if existing == "" {
		return part
	}
	return existing + "\n\n" + part
}

func singleAddress(header mail.Header, key string) *domain.Address {
	list := addressList(header, key)
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

func addressList(header mail.Header, key string) []domain.Address {
	parsed, err := header.AddressList(key)
	if err != nil || len(parsed) == 0 {
		return nil
	}
	out := make([]domain.Address, 0, len(parsed))
	for _, a := range parsed {
		out = append(out, domain.Address{Name: a.Name, Email: a.Address})
	}
	return out
}
