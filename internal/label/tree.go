package label

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/provider"
)

// systemLabelNames maps fixed system label ids to their display names.
var systemLabelNames = map[string]string{
	domain.LabelInbox:     "Inbox",
	domain.LabelSent:      "Sent",
	domain.LabelUnread:    "Unread",
	domain.LabelImportant: "Important",
	domain.LabelStarred:   "Starred",
	domain.LabelDraft:     "Draft",
	domain.LabelChat:      "Chat",
	domain.LabelTrash:     "Trash",
	domain.LabelSpam:      "Spam",
}

// categoryNames maps fixed category ids to their display names.
var categoryNames = map[string]string{
	domain.CategoryPersonal:   "Primary",
	domain.CategorySocial:     "Social",
	domain.CategoryPromotions: "Promotions",
	domain.CategoryUpdates:    "Updates",
	domain.CategoryForums:     "Forums",
}

// SystemLabels exposes the fixed system label nodes.
type SystemLabels struct {
	Inbox, Sent, Unread, Important, Starred, Draft, Chat, Trash, Spam *Node
}

// Categories exposes the fixed category nodes.
type Categories struct {
	Primary, Social, Promotions, Updates, Forums *Node
}

// Tree holds the label hierarchy. User labels form a tree under a virtual
// root keyed by slash-delimited names; system labels and categories are
// fixed single-level nodes seeded once at construction.
type Tree struct {
	svc provider.LabelService

	mu       sync.RWMutex
	registry *Registry
	root     *Node
	gen      uint64

	System     SystemLabels
	Categories Categories
}

// NewTree builds a tree with the fixed system nodes seeded. The user
// hierarchy is empty until the first Refresh.
func NewTree(svc provider.LabelService) *Tree {
	t := &Tree{svc: svc}

	t.System = SystemLabels{
		Inbox:     t.systemNode(domain.LabelInbox, NodeSystem),
		Sent:      t.systemNode(domain.LabelSent, NodeSystem),
		Unread:    t.systemNode(domain.LabelUnread, NodeSystem),
		Important: t.systemNode(domain.LabelImportant, NodeSystem),
		Starred:   t.systemNode(domain.LabelStarred, NodeSystem),
		Draft:     t.systemNode(domain.LabelDraft, NodeSystem),
		Chat:      t.systemNode(domain.LabelChat, NodeSystem),
		Trash:     t.systemNode(domain.LabelTrash, NodeSystem),
		Spam:      t.systemNode(domain.LabelSpam, NodeSystem),
	}
	t.Categories = Categories{
		Primary:    t.systemNode(domain.CategoryPersonal, NodeCategory),
		Social:     t.systemNode(domain.CategorySocial, NodeCategory),
		Promotions: t.systemNode(domain.CategoryPromotions, NodeCategory),
		Updates:    t.systemNode(domain.CategoryUpdates, NodeCategory),
		Forums:     t.systemNode(domain.CategoryForums, NodeCategory),
	}

	t.registry = t.seedRegistry()
	t.root = &Node{tree: t, children: make(map[string]*Node)}
	return t
}

func (t *Tree) systemNode(id string, kind NodeKind) *Node {
	name := systemLabelNames[id]
	if kind == NodeCategory {
		name = categoryNames[id]
	}
	return &Node{id: id, name: name, kind: kind, tree: t, children: make(map[string]*Node)}
}

// seedRegistry returns a fresh registry pre-populated with the fixed system
// and category nodes.
func (t *Tree) seedRegistry() *Registry {
	r := newRegistry()
	for _, n := range []*Node{
		t.System.Inbox, t.System.Sent, t.System.Unread, t.System.Important,
		t.System.Starred, t.System.Draft, t.System.Chat, t.System.Trash, t.System.Spam,
		t.Categories.Primary, t.Categories.Social, t.Categories.Promotions,
		t.Categories.Updates, t.Categories.Forums,
	} {
		r.Set(n)
	}
	return r
}

// Refresh fetches the remote label list and reconciles it against the
// current tree. Nodes whose ids survive are reused (re-parented on path
// renames) so handles held by callers keep working; removed ids are evicted.
// The new registry and tree are built aside and swapped in at the end,
// together with a generation bump that invalidates cached entities.
func (t *Tree) Refresh(ctx context.Context) error {
	labels, err := t.svc.ListLabels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	oldReg := t.registry
	newReg := t.seedRegistry()
	newRoot := &Node{tree: t, children: make(map[string]*Node)}

	// Fixed ids never participate in the user hierarchy.
	user := labels[:0:0]
	for _, l := range labels {
		if _, ok := systemLabelNames[l.ID]; ok {
			continue
		}
		if _, ok := categoryNames[l.ID]; ok {
			continue
		}
		user = append(user, l)
	}

	t.registerChildren(newRoot, "", user, oldReg, newReg)

	t.registry = newReg
	t.root = newRoot
	t.gen++
	return nil
}

// registerChildren reconciles one tree level. labels holds every remote
// label under prefix; those whose remaining path is a single segment become
// direct children here, the rest are handed down to the child they belong
// under.
func (t *Tree) registerChildren(parent *Node, prefix string, labels []domain.Label, oldReg, newReg *Registry) {
	var deeper []domain.Label
	for _, l := range labels {
		rest := strings.TrimPrefix(l.Name, prefix)
		if strings.ContainsRune(rest, '/') {
			deeper = append(deeper, l)
			continue
		}

		node, ok := oldReg.lookupID(l.ID)
		if !ok {
			node = &Node{id: l.ID, kind: NodeUser, tree: t}
		}
		node.name = l.Name
		node.parent = parent
		node.resetChildren()
		parent.addChild(rest, node)
		newReg.Set(node)
	}

	for _, seg := range parent.segments {
		child := parent.children[seg]
		childPrefix := child.name + "/"
		var under []domain.Label
		for _, l := range deeper {
			if strings.HasPrefix(l.Name, childPrefix) {
				under = append(under, l)
			}
		}
		t.registerChildren(child, childPrefix, under, oldReg, newReg)
	}
}

// ByID resolves a node by remote label id.
func (t *Tree) ByID(id string) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.registry.ByID(id)
}

// ByName resolves a node by name: the full slash path for user labels, the
// fixed display name for system labels and categories.
func (t *Tree) ByName(name string) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.registry.ByName(name)
}

// User resolves a user label node by slash-delimited path, walking the tree
// one segment at a time.
func (t *Tree) User(path string) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.root
	for _, seg := range strings.Split(path, "/") {
		child, ok := node.children[seg]
		if !ok {
			return nil, fmt.Errorf("user label %q: %w", path, ErrNotFound)
		}
		node = child
	}
	return node, nil
}

// Roots returns the top-level user label nodes in insertion order.
func (t *Tree) Roots() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Node, 0, len(t.root.segments))
	for _, seg := range t.root.segments {
		out = append(out, t.root.children[seg])
	}
	return out
}

// Len returns the number of registered nodes, fixed nodes included.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.registry.Len()
}

// CreateLabel creates a remote user label (slash paths create nested
// labels), refreshes the hierarchy and returns the new entity.
func (t *Tree) CreateLabel(ctx context.Context, patch provider.LabelPatch) (*Label, error) {
	if patch.Name == "" {
		return nil, fmt.Errorf("label name is required")
	}
	if patch.LabelListVisibility == "" {
		patch.LabelListVisibility = "labelShow"
	}
	if patch.MessageListVisibility == "" {
		patch.MessageListVisibility = "show"
	}

	id, err := t.svc.CreateLabel(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", patch.Name, err)
	}
	if err := t.Refresh(ctx); err != nil {
		return nil, err
	}

	node, err := t.ByID(id)
	if err != nil {
		return nil, err
	}
	return node.Label(ctx)
}
