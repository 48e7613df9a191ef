package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/lu-zhengda/gmailkit/internal/domain"
)

func TestSearchMessages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	msgs := []*domain.Message{
		{
			ID: "m1", ThreadID: "t1", Date: base,
			From:    &domain.Address{Name: "Alice", Email: "alice@example.com"},
			Subject: "quarterly budget review",
			Body:    domain.Body{Text: "numbers are up"},
		},
		{
			ID: "m2", ThreadID: "t2", Date: base.Add(time.Hour),
			From:    &domain.Address{Name: "Bob", Email: "bob@example.com"},
			Subject: "lunch plans",
			Body:    domain.Body{Text: "pizza on friday"},
		},
		{
			ID: "m3", ThreadID: "t3", Date: base.Add(2 * time.Hour),
			From:    &domain.Address{Name: "Carol", Email: "carol@example.com"},
			Subject: "re: budget follow-up",
			Body:    domain.Body{Text: "see previous thread"},
			LabelIDs: []string{"INBOX"},
		},
	}
	for _, m := range msgs {
		if err := db.UpsertMessage(ctx, m, "a1"); err != nil {
			t.Fatalf("UpsertMessage(%s) error: %v", m.ID, err)
		}
	}

	got, err := db.SearchMessages(ctx, "budget", "a1")
	if err != nil {
		t.Fatalf("SearchMessages() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	for _, m := range got {
		if m.ID == "m2" {
			t.Error("unrelated message matched")
		}
	}

	got, err = db.SearchMessages(ctx, "pizza", "a1")
	if err != nil {
		t.Fatalf("SearchMessages() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m2" {
		t.Errorf("body search = %v, want [m2]", got)
	}

	// search is scoped by account
	got, err = db.SearchMessages(ctx, "budget", "other")
	if err != nil {
		t.Fatalf("SearchMessages() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results for unknown account, want 0", len(got))
	}
}

func TestSearchMessagesUpdatedSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	msg := &domain.Message{
		ID: "m1", ThreadID: "t1", Date: time.Now().UTC(),
		Subject: "draft agenda",
		Body:    domain.Body{Text: "old wording"},
	}
	if err := db.UpsertMessage(ctx, msg, "a1"); err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}

	msg.Body.Text = "final wording"
	if err := db.UpsertMessage(ctx, msg, "a1"); err != nil {
		t.Fatalf("UpsertMessage() second error: %v", err)
	}

	if got, err := db.SearchMessages(ctx, "old", "a1"); err != nil || len(got) != 0 {
		t.Errorf("stale text still indexed: %v, %v", got, err)
	}
	if got, err := db.SearchMessages(ctx, "final", "a1"); err != nil || len(got) != 1 {
		t.Errorf("updated text not indexed: %v, %v", got, err)
	}
}
