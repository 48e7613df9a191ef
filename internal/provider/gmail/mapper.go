package gmail

import (
	"encoding/base64"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/provider"
)

// mapLabel converts a Gmail API Label to a domain Label.
func mapLabel(l *gmailapi.Label) domain.Label {
	labelType := domain.LabelTypeUser
	if l.Type == "system" {
		labelType = domain.LabelTypeSystem
	}

	label := domain.Label{
		ID:                    l.Id,
		Name:                  l.Name,
		Type:                  labelType,
		MessagesTotal:         l.MessagesTotal,
		MessagesUnread:        l.MessagesUnread,
		ThreadsTotal:          l.ThreadsTotal,
		ThreadsUnread:         l.ThreadsUnread,
		MessageListVisibility: l.MessageListVisibility,
		LabelListVisibility:   l.LabelListVisibility,
	}
	if l.Color != nil {
		label.TextColor = l.Color.TextColor
		label.BackgroundColor = l.Color.BackgroundColor
	}
	return label
}

// patchToLabel converts a label patch to the API resource. Empty fields stay
// unset so a patch call leaves them untouched.
func patchToLabel(patch provider.LabelPatch) *gmailapi.Label {
	l := &gmailapi.Label{
		Name:                  patch.Name,
		MessageListVisibility: patch.MessageListVisibility,
		LabelListVisibility:   patch.LabelListVisibility,
	}
	if patch.TextColor != "" || patch.BackgroundColor != "" {
		l.Color = &gmailapi.LabelColor{
			TextColor:       patch.TextColor,
			BackgroundColor: patch.BackgroundColor,
		}
	}
	return l
}

// mapRawMessage converts a raw-format Gmail API Message, decoding the
// URL-safe base64 payload.
func mapRawMessage(msg *gmailapi.Message) (*provider.RawMessage, error) {
	raw, err := decodeBase64URL(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw payload of message %s: %w", msg.Id, err)
	}
	return &provider.RawMessage{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		SizeEstimate: msg.SizeEstimate,
		InternalDate: msg.InternalDate,
		Raw:          raw,
		LabelIDs:     msg.LabelIds,
	}, nil
}

// decodeBase64URL decodes Gmail's URL-safe base64 encoded strings, with or
// without padding.
func decodeBase64URL(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(s)
	if err != nil {
		return base64.URLEncoding.DecodeString(s)
	}
	return data, nil
}
