package provider

import (
	"context"

	"github.com/lu-zhengda/gmailkit/internal/domain"
)

// ListOptions configures a message-listing call.
type ListOptions struct {
	Query            string
	LabelIDs         []string
	MaxResults       int64
	IncludeSpamTrash bool
	PageToken        string
}

// ListPage is one page of message ids plus the continuation token, if any.
type ListPage struct {
	IDs           []string
	NextPageToken string
}

// RawMessage is the raw-format message resource returned by a detail fetch.
type RawMessage struct {
	ID           string
	ThreadID     string
	SizeEstimate int64
	InternalDate int64 // milliseconds since epoch
	Raw          []byte
	LabelIDs     []string
}

// BatchGetFunc receives one result per requested id during a batched detail
// fetch. A non-nil error aborts the remaining batch.
type BatchGetFunc func(id string, msg *RawMessage, err error) error

// LabelPatch carries the mutable fields of a label creation or update.
// Empty strings mean "leave unset".
type LabelPatch struct {
	Name                  string
	MessageListVisibility string
	LabelListVisibility   string
	TextColor             string
	BackgroundColor       string
}

// LabelService is the label surface of the remote mailbox.
type LabelService interface {
	ListLabels(ctx context.Context) ([]domain.Label, error)
	GetLabel(ctx context.Context, id string) (*domain.Label, error)
	CreateLabel(ctx context.Context, patch LabelPatch) (string, error)
	UpdateLabel(ctx context.Context, id string, patch LabelPatch) error
	DeleteLabel(ctx context.Context, id string) error
}

// MessageService is the message surface of the remote mailbox.
type MessageService interface {
	ListMessages(ctx context.Context, opts ListOptions) (ListPage, error)
	GetMessageRaw(ctx context.Context, id string) (*RawMessage, error)
	BatchGetMessagesRaw(ctx context.Context, ids []string, fn BatchGetFunc) error

	ModifyMessage(ctx context.Context, id string, add, remove []string) error
	TrashMessage(ctx context.Context, id string) error
	UntrashMessage(ctx context.Context, id string) error
	DeleteMessage(ctx context.Context, id string) error

	BatchDeleteMessages(ctx context.Context, ids []string) error
	BatchModifyMessages(ctx context.Context, ids []string, add, remove []string) error
}

// Service is the full collaborator surface the client core consumes.
type Service interface {
	Authenticate(ctx context.Context) error
	IsAuthenticated() bool
	GetProfile(ctx context.Context) (string, error)

	LabelService
	MessageService
}
