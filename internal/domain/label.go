package domain

type LabelType string

const (
	LabelTypeSystem LabelType = "system"
	LabelTypeUser   LabelType = "user"
)

// Label is the raw label record as reported by the remote service. The name
// of a user label is its full slash-qualified path.
type Label struct {
	ID                    string
	AccountID             string
	Name                  string
	Type                  LabelType
	MessagesTotal         int64
	MessagesUnread        int64
	ThreadsTotal          int64
	ThreadsUnread         int64
	MessageListVisibility string
	LabelListVisibility   string
	TextColor             string
	BackgroundColor       string
}

// Fixed system label ids.
const (
	LabelInbox     = "INBOX"
	LabelSent      = "SENT"
	LabelUnread    = "UNREAD"
	LabelImportant = "IMPORTANT"
	LabelStarred   = "STARRED"
	LabelDraft     = "DRAFT"
	LabelChat      = "CHAT"
	LabelTrash     = "TRASH"
	LabelSpam      = "SPAM"
)

// Fixed category ids. A message belongs to at most one category.
const (
	CategoryPersonal   = "CATEGORY_PERSONAL"
	CategorySocial     = "CATEGORY_SOCIAL"
	CategoryPromotions = "CATEGORY_PROMOTIONS"
	CategoryUpdates    = "CATEGORY_UPDATES"
	CategoryForums     = "CATEGORY_FORUMS"
)
