package query

import (
	"sort"
	"strings"

	"github.com/lu-zhengda/gmailkit/internal/domain"
)

// OrderField names a message field usable as a client-side sort key.
type OrderField int

const (
	OrderDate OrderField = iota
	OrderSize
	OrderFrom
	OrderTo
	OrderSubject
)

// Orderable is a message field that can produce ordering tokens.
type Orderable struct {
	field OrderField
}

// Asc returns an ascending ordering token for the field.
func (o Orderable) Asc() Ordering { return Ordering{Field: o.field} }

// Desc returns a descending ordering token for the field.
func (o Orderable) Desc() Ordering { return Ordering{Field: o.field, Descending: true} }

// Ordering is a direction-tagged sort key applied client-side after fetch.
type Ordering struct {
	Field      OrderField
	Descending bool
}

// The orderable vocabulary.
var (
	ByDate    = Orderable{field: OrderDate}
	BySize    = Orderable{field: OrderSize}
	ByFrom    = Orderable{field: OrderFrom}
	ByTo      = Orderable{field: OrderTo}
	BySubject = Orderable{field: OrderSubject}
)

// Sort applies the ordering tokens to messages in place as a stable
// multi-key sort. Tokens are applied in reverse so the first token ends up
// as the primary key and later tokens break ties.
func Sort(messages []*domain.Message, orderings []Ordering) {
	for i := len(orderings) - 1; i >= 0; i-- {
		ord := orderings[i]
		sort.SliceStable(messages, func(a, b int) bool {
			if ord.Descending {
				return ord.Field.Less(messages[b], messages[a])
			}
			return ord.Field.Less(messages[a], messages[b])
		})
	}
}

// Less reports whether a sorts before b on this field, ascending.
func (f OrderField) Less(a, b *domain.Message) bool {
	switch f {
	case OrderDate:
		return a.Date.Before(b.Date)
	case OrderSize:
		return a.Size < b.Size
	default:
		return f.stringKey(a) < f.stringKey(b)
	}
}

func (f OrderField) stringKey(m *domain.Message) string {
	switch f {
	case OrderFrom:
		if m.From == nil {
			return ""
		}
		return strings.ToLower(m.From.Email)
	case OrderTo:
		parts := make([]string, 0, len(m.To))
		for _, a := range m.To {
			parts = append(parts, strings.ToLower(a.Email))
		}
		return strings.Join(parts, ",")
	case OrderSubject:
		return strings.ToLower(m.Subject)
	default:
		return ""
	}
}
