package cli

import (
	"time"

	"github.com/lu-zhengda/gmailkit/internal/client"
	"github.com/lu-zhengda/gmailkit/internal/domain"
)

// ---------------------------------------------------------------------------
// Account JSON types (account list)
// ---------------------------------------------------------------------------

type jsonAccount struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Provider  string `json:"provider"`
	CreatedAt string `json:"created_at"`
}

func toJSONAccounts(accounts []domain.Account) []jsonAccount {
	out := make([]jsonAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, jsonAccount{
			ID:        a.ID,
			Email:     a.Email,
			Provider:  a.Provider,
			CreatedAt: a.CreatedAt.Format(time.DateOnly),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Label JSON type (labels)
// ---------------------------------------------------------------------------

type jsonLabel struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	MessagesTotal  int64  `json:"messages_total,omitempty"`
	MessagesUnread int64  `json:"messages_unread,omitempty"`
	Color          string `json:"color,omitempty"`
}

func toJSONLabels(labels []domain.Label) []jsonLabel {
	out := make([]jsonLabel, 0, len(labels))
	for _, l := range labels {
		out = append(out, toJSONLabel(l))
	}
	return out
}

func toJSONLabel(l domain.Label) jsonLabel {
	return jsonLabel{
		ID:             l.ID,
		Name:           l.Name,
		Type:           string(l.Type),
		MessagesTotal:  l.MessagesTotal,
		MessagesUnread: l.MessagesUnread,
		Color:          l.BackgroundColor,
	}
}

// ---------------------------------------------------------------------------
// Message JSON types (search, read)
// ---------------------------------------------------------------------------

type jsonMessage struct {
	ID          string           `json:"id"`
	ThreadID    string           `json:"thread_id"`
	From        *jsonAddress     `json:"from,omitempty"`
	To          []jsonAddress    `json:"to,omitempty"`
	CC          []jsonAddress    `json:"cc,omitempty"`
	Subject     string           `json:"subject"`
	Date        string           `json:"date"`
	Size        int64            `json:"size,omitempty"`
	IsRead      bool             `json:"is_read"`
	IsStarred   bool             `json:"is_starred"`
	Labels      []string         `json:"labels,omitempty"`
	Category    string           `json:"category,omitempty"`
	Body        string           `json:"body,omitempty"`
	Attachments []jsonAttachment `json:"attachments,omitempty"`
}

type jsonAttachment struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// toJSONMessage renders a search result row: headers and flags, no body.
func toJSONMessage(m *client.Message) jsonMessage {
	out := jsonMessage{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		From:      toJSONAddress(m.From),
		To:        toJSONAddresses(m.To),
		CC:        toJSONAddresses(m.CC),
		Subject:   m.Subject,
		Date:      m.Date.Format(time.RFC3339),
		Size:      m.Size,
		IsRead:    m.IsRead(),
		IsStarred: m.IsStarred(),
	}
	for _, l := range m.Labels() {
		out.Labels = append(out.Labels, l.Name())
	}
	if c := m.Category(); c != nil {
		out.Category = c.Name()
	}
	return out
}

func toJSONMessages(messages []*client.Message) []jsonMessage {
	out := make([]jsonMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, toJSONMessage(m))
	}
	return out
}

// toJSONMessageDetail renders a full message: body text and attachments too.
func toJSONMessageDetail(m *client.Message) jsonMessage {
	out := toJSONMessage(m)
	out.Body = m.Body.Text
	for _, a := range m.Attachments {
		out.Attachments = append(out.Attachments, jsonAttachment{
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Size:     a.Size,
		})
	}
	return out
}

// toJSONCachedMessages renders snapshots loaded from the local cache.
func toJSONCachedMessages(messages []domain.Message) []jsonMessage {
	out := make([]jsonMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, jsonMessage{
			ID:        m.ID,
			ThreadID:  m.ThreadID,
			From:      toJSONAddress(m.From),
			To:        toJSONAddresses(m.To),
			Subject:   m.Subject,
			Date:      m.Date.Format(time.RFC3339),
			Size:      m.Size,
			IsRead:    m.IsRead(),
			IsStarred: m.IsStarred(),
			Labels:    m.LabelIDs,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Address JSON type (shared)
// ---------------------------------------------------------------------------

type jsonAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

func toJSONAddress(a *domain.Address) *jsonAddress {
	if a == nil {
		return nil
	}
	return &jsonAddress{Name: a.Name, Email: a.Email}
}

func toJSONAddresses(addrs []domain.Address) []jsonAddress {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]jsonAddress, len(addrs))
	for i, a := range addrs {
		out[i] = jsonAddress{Name: a.Name, Email: a.Email}
	}
	return out
}

// ---------------------------------------------------------------------------
// Action JSON type (account add/remove, sync, bulk, label mutations)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK        bool   `json:"ok"`
	Action    string `json:"action"`
	Email     string `json:"email,omitempty"`
	AccountID string `json:"account_id,omitempty"`
	Label     string `json:"label,omitempty"`
	Count     int    `json:"count,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
}
