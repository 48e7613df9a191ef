package client

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lu-zhengda/gmailkit/internal/provider"
	"github.com/lu-zhengda/gmailkit/internal/query"
)

// Labeled is anything with a remote label id: label and category entities
// both qualify.
type Labeled interface {
	ID() string
}

// Search accumulates a filter, label restriction, ordering and limit, then
// executes against the remote mailbox.
type Search struct {
	c      *Client
	where  query.Term
	raw    string
	labels []Labeled
	limit  *int64 // nil means unbounded
	trash  bool
	order  []query.Ordering
}

// Where sets the filter expression.
func (s *Search) Where(term query.Term) *Search {
	s.where = term
	return s
}

// WhereRaw sets a pre-rendered query string passed through verbatim,
// alongside any expression set via Where.
func (s *Search) WhereRaw(q string) *Search {
	s.raw = q
	return s
}

// In restricts results to messages carrying every given label or category.
func (s *Search) In(labels ...Labeled) *Search {
	s.labels = labels
	return s
}

// OrderBy sets the client-side ordering. The first token is the primary
// sort key; later tokens break ties.
func (s *Search) OrderBy(orderings ...query.Ordering) *Search {
	s.order = orderings
	return s
}

// Limit caps the number of results.
func (s *Search) Limit(n int64) *Search {
	s.limit = &n
	return s
}

// Unlimited removes the result cap.
func (s *Search) Unlimited() *Search {
	s.limit = nil
	return s
}

// IncludeTrash also matches messages in spam and trash.
func (s *Search) IncludeTrash(include bool) *Search {
	s.trash = include
	return s
}

// Bulk exposes batched mutations over this search's result set.
func (s *Search) Bulk() BulkAction {
	return BulkAction{s: s}
}

// Execute resolves the matching message ids, fetches the full messages and
// applies any ordering. Transport failures abort and propagate unmodified.
func (s *Search) Execute(ctx context.Context) ([]*Message, error) {
	if err := s.c.ensureLabels(ctx); err != nil {
		return nil, err
	}

	ids, err := s.fetchIDs(ctx)
	if err != nil {
		return nil, err
	}

	var messages []*Message
	if s.c.cfg.batchingEnabled() {
		messages, err = s.fetchBatched(ctx, ids)
	} else {
		messages, err = s.fetchSequential(ctx, ids)
	}
	if err != nil {
		return nil, err
	}

	if len(s.order) > 0 {
		s.applyOrdering(messages)
	}
	return messages, nil
}

// fetchIDs pages through the message listing, shrinking each page request
// to the remaining need, until the limit is reached or the continuation
// token runs out.
func (s *Search) fetchIDs(ctx context.Context) ([]string, error) {
	opts := provider.ListOptions{
		IncludeSpamTrash: s.trash,
	}

	if s.where != nil {
		rendered, err := query.RenderWith(s.where, query.Options{
			LegacyTruncation: s.c.cfg.LegacyTruncation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render query: %w", err)
		}
		opts.Query = rendered
	}
	if s.raw != "" {
		opts.Query = strings.TrimSpace(opts.Query + " " + s.raw)
	}
	for _, l := range s.labels {
		opts.LabelIDs = append(opts.LabelIDs, l.ID())
	}

	var ids []string
	for {
		if s.limit != nil {
			remaining := *s.limit - int64(len(ids))
			if remaining <= 0 {
				break
			}
			opts.MaxResults = remaining
		}

		page, err := s.c.svc.ListMessages(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		ids = append(ids, page.IDs...)

		if page.NextPageToken == "" {
			break
		}
		opts.PageToken = page.NextPageToken
	}

	if s.limit != nil && int64(len(ids)) > *s.limit {
		ids = ids[:*s.limit]
	}
	return ids, nil
}

func (s *Search) fetchSequential(ctx context.Context, ids []string) ([]*Message, error) {
	messages := make([]*Message, 0, len(ids))
	for _, id := range ids {
		raw, err := s.c.svc.GetMessageRaw(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", id, err)
		}
		msg, err := s.c.assemble(ctx, raw)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// fetchBatched fetches the ids in fixed-size chunks, pacing successive
// batch starts through the client's limiter.
func (s *Search) fetchBatched(ctx context.Context, ids []string) ([]*Message, error) {
	messages := make([]*Message, 0, len(ids))
	size := s.c.cfg.BatchSize

	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))

		if err := s.c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var raws []*provider.RawMessage
		err := s.c.svc.BatchGetMessagesRaw(ctx, ids[start:end], func(id string, raw *provider.RawMessage, err error) error {
			if err != nil {
				return fmt.Errorf("failed to get message %s: %w", id, err)
			}
			raws = append(raws, raw)
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, raw := range raws {
			msg, err := s.c.assemble(ctx, raw)
			if err != nil {
				return nil, err
			}
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// applyOrdering runs the ordering tokens as a stable multi-key sort,
// iterating in reverse so the first token wins as the primary key.
func (s *Search) applyOrdering(messages []*Message) {
	for i := len(s.order) - 1; i >= 0; i-- {
		ord := s.order[i]
		sort.SliceStable(messages, func(a, b int) bool {
			if ord.Descending {
				return ord.Field.Less(&messages[b].Message, &messages[a].Message)
			}
			return ord.Field.Less(&messages[a].Message, &messages[b].Message)
		})
	}
}
