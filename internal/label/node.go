package label

import (
	"context"
	"fmt"
	"strings"
)

// NodeKind distinguishes the three flavors of tree nodes.
type NodeKind int

const (
	NodeUser NodeKind = iota
	NodeSystem
	NodeCategory
)

// Node is a stable handle onto one label in the hierarchy. The node survives
// tree refreshes as long as its remote id does, so callers may hold onto it;
// the underlying entity is lazily fetched and transparently refetched after
// the surrounding hierarchy changes.
type Node struct {
	id   string
	name string // full slash-qualified path, or fixed display name
	kind NodeKind

	parent   *Node
	segments []string // child insertion order
	children map[string]*Node

	tree *Tree

	// entity cache, stamped with the tree generation it was fetched under
	entity    *Label
	category  *Category
	entityGen uint64
}

func (n *Node) ID() string     { return n.id }
func (n *Node) Name() string   { return n.name }
func (n *Node) Kind() NodeKind { return n.kind }

// Segment returns the last path segment of the node's name.
func (n *Node) Segment() string {
	if i := strings.LastIndexByte(n.name, '/'); i >= 0 {
		return n.name[i+1:]
	}
	return n.name
}

// Parent returns the parent node, or nil for top-level, system and category
// nodes.
func (n *Node) Parent() *Node {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	if n.parent == nil || n.parent.isRoot() {
		return nil
	}
	return n.parent
}

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	out := make([]*Node, 0, len(n.segments))
	for _, seg := range n.segments {
		out = append(out, n.children[seg])
	}
	return out
}

// Child returns the direct child with the given local path segment.
func (n *Node) Child(segment string) (*Node, error) {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	child, ok := n.children[segment]
	if !ok {
		return nil, fmt.Errorf("child %q of %q: %w", segment, n.name, ErrNotFound)
	}
	return child, nil
}

func (n *Node) isRoot() bool {
	return n.id == ""
}

func (n *Node) resetChildren() {
	n.segments = nil
	n.children = make(map[string]*Node)
}

func (n *Node) addChild(segment string, child *Node) {
	if _, ok := n.children[segment]; !ok {
		n.segments = append(n.segments, segment)
	}
	n.children[segment] = child
}

// Label returns the label entity behind this node, fetching it from the
// remote on first access. An entity cached under an older tree generation is
// stale and refetched.
func (n *Node) Label(ctx context.Context) (*Label, error) {
	if n.kind == NodeCategory {
		return nil, fmt.Errorf("node %q is a category, not a label", n.name)
	}

	n.tree.mu.RLock()
	gen := n.tree.gen
	cached := n.entity
	cachedGen := n.entityGen
	n.tree.mu.RUnlock()

	if cached != nil && cachedGen == gen {
		return cached, nil
	}

	entity, err := n.fetchLabel(ctx)
	if err != nil {
		return nil, err
	}

	n.tree.mu.Lock()
	n.entity = entity
	n.entityGen = gen
	n.tree.mu.Unlock()
	return entity, nil
}

// Category returns the category entity behind this node.
func (n *Node) Category(ctx context.Context) (*Category, error) {
	if n.kind != NodeCategory {
		return nil, fmt.Errorf("node %q is a label, not a category", n.name)
	}

	n.tree.mu.RLock()
	gen := n.tree.gen
	cached := n.category
	cachedGen := n.entityGen
	n.tree.mu.RUnlock()

	if cached != nil && cachedGen == gen {
		return cached, nil
	}

	info, err := n.tree.svc.GetLabel(ctx, n.id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category %s: %w", n.id, err)
	}
	info.Name = n.name // fixed display name, not the remote one

	entity := &Category{node: n, Info: *info}
	n.tree.mu.Lock()
	n.category = entity
	n.entityGen = gen
	n.tree.mu.Unlock()
	return entity, nil
}

func (n *Node) fetchLabel(ctx context.Context) (*Label, error) {
	info, err := n.tree.svc.GetLabel(ctx, n.id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label %s: %w", n.id, err)
	}
	if n.kind == NodeSystem {
		info.Name = n.name // fixed display name, not the remote one
	}
	return &Label{node: n, Info: *info}, nil
}
