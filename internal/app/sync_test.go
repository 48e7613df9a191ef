package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/client"
	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/provider"
	"github.com/lu-zhengda/gmailkit/internal/store"
	"github.com/lu-zhengda/gmailkit/internal/store/sqlite"
)

// fakeService serves a small fixed mailbox.
type fakeService struct {
	labels []domain.Label
	raws   map[string]*provider.RawMessage
	ids    []string
}

func (f *fakeService) Authenticate(ctx context.Context) error { return nil }
func (f *fakeService) IsAuthenticated() bool                  { return true }
func (f *fakeService) GetProfile(ctx context.Context) (string, error) {
	return "user@example.com", nil
}

func (f *fakeService) ListLabels(ctx context.Context) ([]domain.Label, error) {
	return f.labels, nil
}

func (f *fakeService) GetLabel(ctx context.Context, id string) (*domain.Label, error) {
	for _, l := range f.labels {
		if l.ID == id {
			out := l
			return &out, nil
		}
	}
	// System and category ids resolve to synthetic fixed labels.
	return &domain.Label{ID: id, Name: id, Type: domain.LabelTypeSystem}, nil
}

func (f *fakeService) CreateLabel(ctx context.Context, patch provider.LabelPatch) (string, error) {
	return "", fmt.Errorf("not implemented")
}
func (f *fakeService) UpdateLabel(ctx context.Context, id string, patch provider.LabelPatch) error {
	return fmt.Errorf("not implemented")
}
func (f *fakeService) DeleteLabel(ctx context.Context, id string) error {
	return fmt.Errorf("not implemented")
}

func (f *fakeService) ListMessages(ctx context.Context, opts provider.ListOptions) (provider.ListPage, error) {
	return provider.ListPage{IDs: f.ids}, nil
}

func (f *fakeService) GetMessageRaw(ctx context.Context, id string) (*provider.RawMessage, error) {
	raw, ok := f.raws[id]
	if !ok {
		return nil, fmt.Errorf("no message %s", id)
	}
	return raw, nil
}

func (f *fakeService) BatchGetMessagesRaw(ctx context.Context, ids []string, fn provider.BatchGetFunc) error {
	for _, id := range ids {
		raw, err := f.GetMessageRaw(ctx, id)
		if err := fn(id, raw, err); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeService) ModifyMessage(ctx context.Context, id string, add, remove []string) error {
	return nil
}
func (f *fakeService) TrashMessage(ctx context.Context, id string) error   { return nil }
func (f *fakeService) UntrashMessage(ctx context.Context, id string) error { return nil }
func (f *fakeService) DeleteMessage(ctx context.Context, id string) error  { return nil }
func (f *fakeService) BatchDeleteMessages(ctx context.Context, ids []string) error {
	return nil
}
func (f *fakeService) BatchModifyMessages(ctx context.Context, ids []string, add, remove []string) error {
	return nil
}

func rawMessage(id, subject string) *provider.RawMessage {
	mime := strings.Join([]string{
		"From: Alice <alice@example.com>",
		"To: user@example.com",
		"Subject: " + subject,
		"Content-Type: text/plain",
		"",
		"body of " + id,
	}, "\r\n")
	return &provider.RawMessage{
		ID:           id,
		ThreadID:     "t-" + id,
		SizeEstimate: int64(len(mime)),
		InternalDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		Raw:          []byte(mime),
		LabelIDs:     []string{domain.LabelInbox, domain.LabelUnread},
	}
}

func newTestSync(t *testing.T) (*SyncService, store.Store, *fakeService) {
	t.Helper()

	svc := &fakeService{
		labels: []domain.Label{
			{ID: "Label_1", Name: "work", Type: domain.LabelTypeUser},
			{ID: "Label_2", Name: "work/reports", Type: domain.LabelTypeUser},
		},
		raws: map[string]*provider.RawMessage{
			"m1": rawMessage("m1", "First"),
			"m2": rawMessage("m2", "Second"),
		},
		ids: []string{"m1", "m2"},
	}

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.CreateAccount(ctx, &domain.Account{
		ID: "user@example.com", Email: "user@example.com", Provider: "gmail",
	}); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	c := client.New(svc, client.Config{BatchSize: -1})
	logger := slog.New(slog.NewTextHandler(discard{}, nil))
	return NewSyncService(db, c, "user@example.com", logger), db, svc
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestSyncCachesLabelsAndMessages(t *testing.T) {
	ctx := context.Background()
	s, db, _ := newTestSync(t)

	if err := s.Sync(ctx, 10); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	labels, err := db.ListLabels(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("ListLabels() error = %v", err)
	}
	names := map[string]bool{}
	for _, l := range labels {
		names[l.Name] = true
		if l.AccountID != "user@example.com" {
			t.Errorf("label %s has account %q", l.ID, l.AccountID)
		}
	}
	if !names["work"] || !names["work/reports"] {
		t.Errorf("user labels missing from cache: %v", names)
	}

	msg, err := db.GetMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if msg.Subject != "First" {
		t.Errorf("got subject %q, want %q", msg.Subject, "First")
	}
	if msg.IsRead() {
		t.Error("message should still be unread")
	}

	state, err := db.GetSyncState(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("GetSyncState() error = %v", err)
	}
	if state.Messages != 2 {
		t.Errorf("got %d synced messages, want 2", state.Messages)
	}
	if state.LastSync == 0 {
		t.Error("last sync timestamp not recorded")
	}
}

func TestSyncAgainReplacesLabelSnapshot(t *testing.T) {
	ctx := context.Background()
	s, db, svc := newTestSync(t)

	if err := s.Sync(ctx, 10); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	// Simulate a remote label deletion between syncs.
	svc.labels = svc.labels[:1]
	if err := s.Sync(ctx, 10); err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}

	labels, err := db.ListLabels(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("ListLabels() error = %v", err)
	}
	for _, l := range labels {
		if l.Name == "work/reports" {
			t.Error("deleted label work/reports still cached after resync")
		}
	}
}
