package domain

import "testing"

func TestAddress_String(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"with name", Address{Name: "John", Email: "john@example.com"}, "John <john@example.com>"},
		{"email only", Address{Email: "john@example.com"}, "john@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.String(); got != tt.want {
				t.Errorf("Address.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_HasLabelID(t *testing.T) {
	m := &Message{LabelIDs: []string{LabelInbox, LabelStarred}}
	if !m.HasLabelID(LabelInbox) {
		t.Error("expected HasLabelID(INBOX) = true")
	}
	if m.HasLabelID(LabelTrash) {
		t.Error("expected HasLabelID(TRASH) = false")
	}
}

func TestMessage_IsRead(t *testing.T) {
	unread := &Message{LabelIDs: []string{LabelInbox, LabelUnread}}
	if unread.IsRead() {
		t.Error("message with UNREAD label reported as read")
	}
	read := &Message{LabelIDs: []string{LabelInbox}}
	if !read.IsRead() {
		t.Error("message without UNREAD label reported as unread")
	}
	if !unread.HasLabelID(LabelInbox) || read.IsStarred() {
		t.Error("unexpected label state")
	}
}
