package client

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/label"
)

// BulkAction binds a mutation to a search's result set. Each factory
// returns a context that can run the mutation immediately via Execute or
// under the confirm-then-apply protocol via Open, Commit and Close.
type BulkAction struct {
	s *Search
}

// Delete permanently removes every matched message.
func (b BulkAction) Delete() *BulkActionContext {
	return b.context(func(ctx context.Context, ids []string) error {
		if err := b.s.c.svc.BatchDeleteMessages(ctx, ids); err != nil {
			return fmt.Errorf("failed to bulk delete messages: %w", err)
		}
		return nil
	})
}

// AddLabels attaches the given labels to every matched message.
func (b BulkAction) AddLabels(labels ...*label.Label) *BulkActionContext {
	return b.modify(labelIDs(labels), nil)
}

// RemoveLabels detaches the given labels from every matched message.
func (b BulkAction) RemoveLabels(labels ...*label.Label) *BulkActionContext {
	return b.modify(nil, labelIDs(labels))
}

// ChangeCategory moves every matched message into the given category,
// displacing whichever category each message carried before.
func (b BulkAction) ChangeCategory(category *label.Category) *BulkActionContext {
	var remove []string
	for _, id := range []string{
		domain.CategoryPersonal,
		domain.CategorySocial,
		domain.CategoryPromotions,
		domain.CategoryUpdates,
		domain.CategoryForums,
	} {
		if id != category.ID() {
			remove = append(remove, id)
		}
	}
	return b.modify([]string{category.ID()}, remove)
}

// MarkRead toggles the UNREAD label on every matched message.
func (b BulkAction) MarkRead(read bool) *BulkActionContext {
	return b.toggle(domain.LabelUnread, !read)
}

// MarkImportant toggles the IMPORTANT label on every matched message.
func (b BulkAction) MarkImportant(important bool) *BulkActionContext {
	return b.toggle(domain.LabelImportant, important)
}

// MarkStarred toggles the STARRED label on every matched message.
func (b BulkAction) MarkStarred(starred bool) *BulkActionContext {
	return b.toggle(domain.LabelStarred, starred)
}

// Archive removes every matched message from the inbox.
func (b BulkAction) Archive() *BulkActionContext {
	return b.modify(nil, []string{domain.LabelInbox})
}

func (b BulkAction) toggle(id string, on bool) *BulkActionContext {
	if on {
		return b.modify([]string{id}, nil)
	}
	return b.modify(nil, []string{id})
}

func (b BulkAction) modify(add, remove []string) *BulkActionContext {
	return b.context(func(ctx context.Context, ids []string) error {
		if err := b.s.c.svc.BatchModifyMessages(ctx, ids, add, remove); err != nil {
			return fmt.Errorf("failed to bulk modify messages: %w", err)
		}
		return nil
	})
}

func (b BulkAction) context(action func(ctx context.Context, ids []string) error) *BulkActionContext {
	return &BulkActionContext{search: b.s, action: action}
}

// BulkActionContext scopes a bulk mutation. Open resolves the matched ids
// so the caller can inspect the blast radius, Commit arms the mutation,
// and Close applies it. An unarmed Close is a no-op, which makes aborting
// as simple as returning early.
type BulkActionContext struct {
	search    *Search
	action    func(ctx context.Context, ids []string) error
	ids       []string
	opened    bool
	committed bool
}

// Open resolves the matched message ids without mutating anything.
func (bc *BulkActionContext) Open(ctx context.Context) error {
	if err := bc.search.c.ensureLabels(ctx); err != nil {
		return err
	}
	ids, err := bc.search.fetchIDs(ctx)
	if err != nil {
		return err
	}
	bc.ids = ids
	bc.opened = true
	return nil
}

// Count returns the number of messages the action would touch.
func (bc *BulkActionContext) Count() int { return len(bc.ids) }

// Empty reports whether the search matched nothing.
func (bc *BulkActionContext) Empty() bool { return len(bc.ids) == 0 }

// Commit arms the action. It does not apply anything by itself.
func (bc *BulkActionContext) Commit() { bc.committed = true }

// Close applies the action if and only if Commit was called. The context
// must not be reused afterwards.
func (bc *BulkActionContext) Close(ctx context.Context) error {
	if !bc.committed {
		return nil
	}
	if !bc.opened {
		return fmt.Errorf("bulk action committed without being opened")
	}
	bc.committed = false
	if len(bc.ids) == 0 {
		return nil
	}
	return bc.action(ctx, bc.ids)
}

// Execute runs the action immediately against the current match set and
// returns the number of messages touched.
func (bc *BulkActionContext) Execute(ctx context.Context) (int, error) {
	if err := bc.Open(ctx); err != nil {
		return 0, err
	}
	if len(bc.ids) == 0 {
		return 0, nil
	}
	if err := bc.action(ctx, bc.ids); err != nil {
		return 0, err
	}
	return len(bc.ids), nil
}
