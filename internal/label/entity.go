package label

import (
	"context"
	"fmt"
	"strings"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/provider"
)

// Label is a label entity with live attributes fetched from the remote.
// It stays bound to its tree node, so hierarchy navigation keeps working
// after refreshes.
type Label struct {
	node *Node
	Info domain.Label
}

func (l *Label) ID() string   { return l.Info.ID }
func (l *Label) Name() string { return l.Info.Name }

func (l *Label) String() string { return l.Info.Name }

// Node returns the hierarchy node backing this entity.
func (l *Label) Node() *Node { return l.node }

// Refresh refetches the label's attributes from the remote.
func (l *Label) Refresh(ctx context.Context) error {
	fresh, err := l.node.fetchLabel(ctx)
	if err != nil {
		return err
	}
	l.Info = fresh.Info
	return nil
}

// Contains reports membership: a *Label argument tests whether other sits
// underneath this label in the hierarchy; a *domain.Message argument tests
// whether the message carries this label. Any other type is an error.
func (l *Label) Contains(other any) (bool, error) {
	switch o := other.(type) {
	case *Label:
		return o.Name() == l.Name() || strings.HasPrefix(o.Name(), l.Name()+"/"), nil
	case *domain.Message:
		return o.HasLabelID(l.ID()), nil
	default:
		return false, fmt.Errorf("cannot test %T for membership in a label; must be *label.Label or *domain.Message", other)
	}
}

// Parent returns the entity of the parent label, or nil for top-level and
// system labels.
func (l *Label) Parent(ctx context.Context) (*Label, error) {
	parent := l.node.Parent()
	if parent == nil {
		return nil, nil
	}
	return parent.Label(ctx)
}

// Children returns the entities of the direct child labels.
func (l *Label) Children(ctx context.Context) ([]*Label, error) {
	nodes := l.node.Children()
	out := make([]*Label, 0, len(nodes))
	for _, n := range nodes {
		child, err := n.Label(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// CreateChild creates a nested label underneath this one.
func (l *Label) CreateChild(ctx context.Context, name string) (*Label, error) {
	return l.node.tree.CreateLabel(ctx, provider.LabelPatch{Name: l.Name() + "/" + name})
}

// Update pushes changed fields to the remote and refreshes both the entity
// and the surrounding hierarchy, since a rename moves the label's path.
func (l *Label) Update(ctx context.Context, patch provider.LabelPatch) error {
	if patch == (provider.LabelPatch{}) {
		return fmt.Errorf("label update requires at least one field")
	}

	if err := l.node.tree.svc.UpdateLabel(ctx, l.ID(), patch); err != nil {
		return fmt.Errorf("failed to update label %s: %w", l.ID(), err)
	}
	if err := l.node.tree.Refresh(ctx); err != nil {
		return err
	}
	return l.Refresh(ctx)
}

// Delete removes the label remotely. With recursive set, every user label
// underneath it is deleted as well.
func (l *Label) Delete(ctx context.Context, recursive bool) error {
	tree := l.node.tree

	if err := tree.svc.DeleteLabel(ctx, l.ID()); err != nil {
		return fmt.Errorf("failed to delete label %s: %w", l.ID(), err)
	}

	if recursive {
		labels, err := tree.svc.ListLabels(ctx)
		if err != nil {
			return fmt.Errorf("failed to list labels: %w", err)
		}
		prefix := l.Name() + "/"
		for _, remote := range labels {
			if remote.Type == domain.LabelTypeUser && strings.HasPrefix(remote.Name, prefix) {
				if err := tree.svc.DeleteLabel(ctx, remote.ID); err != nil {
					return fmt.Errorf("failed to delete label %s: %w", remote.ID, err)
				}
			}
		}
	}

	return tree.Refresh(ctx)
}

// Category is one of the fixed, mutually exclusive inbox classification
// buckets. A message carries at most one category.
type Category struct {
	node *Node
	Info domain.Label
}

func (c *Category) ID() string   { return c.Info.ID }
func (c *Category) Name() string { return c.Info.Name }

func (c *Category) String() string { return c.Info.Name }

// Node returns the hierarchy node backing this entity.
func (c *Category) Node() *Node { return c.node }

// Refresh refetches the category's attributes from the remote.
func (c *Category) Refresh(ctx context.Context) error {
	info, err := c.node.tree.svc.GetLabel(ctx, c.node.id)
	if err != nil {
		return fmt.Errorf("failed to fetch category %s: %w", c.node.id, err)
	}
	info.Name = c.node.name
	c.Info = *info
	return nil
}

// Contains reports whether the message is classified under this category.
// Any argument other than a *domain.Message is an error.
func (c *Category) Contains(other any) (bool, error) {
	m, ok := other.(*domain.Message)
	if !ok {
		return false, fmt.Errorf("cannot test %T for membership in a category; must be *domain.Message", other)
	}
	return m.HasLabelID(c.ID()), nil
}
