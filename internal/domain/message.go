package domain

import "time"

type Address struct {
	Name  string
	Email string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Body holds the text and HTML variants of a message body.
type Body struct {
	Text string
	HTML string
}

// Attachment describes an attachment without its payload bytes.
type Attachment struct {
	Filename string
	MIMEType string
	Size     int64
}

// Message is an immutable snapshot of a remote message, assembled once per
// fetch. LabelIDs carries the raw label ids from the remote; resolving them
// into label entities is the client's job.
type Message struct {
	ID          string
	ThreadID    string
	Size        int64
	Date        time.Time
	From        *Address
	To          []Address
	CC          []Address
	BCC         []Address
	Subject     string
	Body        Body
	Attachments []Attachment
	LabelIDs    []string
}

func (m *Message) HasLabelID(id string) bool {
	for _, l := range m.LabelIDs {
		if l == id {
			return true
		}
	}
	return false
}

func (m *Message) IsRead() bool {
	return !m.HasLabelID(LabelUnread)
}

func (m *Message) IsStarred() bool {
	return m.HasLabelID(LabelStarred)
}
