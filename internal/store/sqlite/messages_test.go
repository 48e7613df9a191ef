package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/store"
)

func sampleMessage(id string, date time.Time) *domain.Message {
	return &domain.Message{
		ID:       id,
		ThreadID: "t-" + id,
		Size:     2048,
		Date:     date,
		From:     &domain.Address{Name: "Alice", Email: "alice@example.com"},
		To:       []domain.Address{{Email: "bob@example.com"}},
		Subject:  "hello " + id,
		Body:     domain.Body{Text: "plain body", HTML: "<p>html body</p>"},
		Attachments: []domain.Attachment{
			{Filename: "report.pdf", MIMEType: "application/pdf", Size: 1024},
		},
		LabelIDs: []string{"INBOX", "UNREAD"},
	}
}

func TestUpsertAndGetMessage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	date := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := sampleMessage("m1", date)
	if err := db.UpsertMessage(ctx, msg, "a1"); err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}

	got, err := db.GetMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessage() error: %v", err)
	}

	if got.Subject != "hello m1" {
		t.Errorf("subject = %q, want %q", got.Subject, "hello m1")
	}
	if got.From == nil || got.From.Email != "alice@example.com" {
		t.Errorf("from = %+v, want alice@example.com", got.From)
	}
	if len(got.To) != 1 || got.To[0].Email != "bob@example.com" {
		t.Errorf("to = %+v, want bob@example.com", got.To)
	}
	if got.Body.Text != "plain body" || got.Body.HTML != "<p>html body</p>" {
		t.Errorf("body = %+v", got.Body)
	}
	if !got.Date.Equal(date) {
		t.Errorf("date = %v, want %v", got.Date, date)
	}
	if len(got.LabelIDs) != 2 {
		t.Errorf("labels = %v, want 2 entries", got.LabelIDs)
	}
	if got.IsRead() {
		t.Error("IsRead() = true for a message carrying UNREAD")
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Filename != "report.pdf" {
		t.Errorf("attachments = %+v, want report.pdf", got.Attachments)
	}
}

func TestUpsertMessageReplacesLabels(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	msg := sampleMessage("m1", time.Now().UTC())
	if err := db.UpsertMessage(ctx, msg, "a1"); err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}

	msg.LabelIDs = []string{"INBOX"}
	if err := db.UpsertMessage(ctx, msg, "a1"); err != nil {
		t.Fatalf("UpsertMessage() second error: %v", err)
	}

	got, err := db.GetMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessage() error: %v", err)
	}
	if len(got.LabelIDs) != 1 || got.LabelIDs[0] != "INBOX" {
		t.Errorf("labels = %v, want [INBOX]", got.LabelIDs)
	}
	if !got.IsRead() {
		t.Error("IsRead() = false after UNREAD was removed")
	}
}

func TestListMessagesByLabel(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		msg := sampleMessage(id, base.Add(time.Duration(i)*time.Hour))
		if id == "m2" {
			msg.LabelIDs = []string{"Label_7"}
		}
		if err := db.UpsertMessage(ctx, msg, "a1"); err != nil {
			t.Fatalf("UpsertMessage(%s) error: %v", id, err)
		}
	}

	all, err := db.ListMessages(ctx, store.ListMessageOptions{AccountID: "a1"})
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d messages, want 3", len(all))
	}
	// newest first
	if all[0].ID != "m3" {
		t.Errorf("first = %s, want m3", all[0].ID)
	}

	tagged, err := db.ListMessages(ctx, store.ListMessageOptions{AccountID: "a1", LabelID: "Label_7"})
	if err != nil {
		t.Fatalf("ListMessages(label) error: %v", err)
	}
	if len(tagged) != 1 || tagged[0].ID != "m2" {
		t.Errorf("tagged = %v, want [m2]", tagged)
	}

	limited, err := db.ListMessages(ctx, store.ListMessageOptions{AccountID: "a1", Limit: 2})
	if err != nil {
		t.Fatalf("ListMessages(limit) error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d messages with limit 2", len(limited))
	}
}

func TestDeleteMessage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	if err := db.UpsertMessage(ctx, sampleMessage("m1", time.Now().UTC()), "a1"); err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}
	if err := db.DeleteMessage(ctx, "m1"); err != nil {
		t.Fatalf("DeleteMessage() error: %v", err)
	}
	if _, err := db.GetMessage(ctx, "m1"); err == nil {
		t.Error("GetMessage() after delete succeeded, want error")
	}
}

func TestSetMessageLabels(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	if err := db.UpsertMessage(ctx, sampleMessage("m1", time.Now().UTC()), "a1"); err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}
	if err := db.SetMessageLabels(ctx, "m1", []string{"STARRED", "Label_2"}); err != nil {
		t.Fatalf("SetMessageLabels() error: %v", err)
	}

	got, err := db.GetMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessage() error: %v", err)
	}
	if len(got.LabelIDs) != 2 {
		t.Errorf("labels = %v, want 2 entries", got.LabelIDs)
	}
	if !got.IsStarred() {
		t.Error("IsStarred() = false after STARRED was set")
	}
}

func TestSyncStateRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	// missing state comes back empty, not as an error
	state, err := db.GetSyncState(ctx, "a1")
	if err != nil {
		t.Fatalf("GetSyncState() error: %v", err)
	}
	if state.AccountID != "a1" || state.LastSync != 0 {
		t.Errorf("empty state = %+v", state)
	}

	now := time.Now().Unix()
	if err := db.SetSyncState(ctx, &store.SyncState{AccountID: "a1", LastSync: now, Messages: 42}); err != nil {
		t.Fatalf("SetSyncState() error: %v", err)
	}

	state, err = db.GetSyncState(ctx, "a1")
	if err != nil {
		t.Fatalf("GetSyncState() second error: %v", err)
	}
	if state.LastSync != now {
		t.Errorf("last_sync = %d, want %d", state.LastSync, now)
	}
	if state.Messages != 42 {
		t.Errorf("messages = %d, want 42", state.Messages)
	}
}
