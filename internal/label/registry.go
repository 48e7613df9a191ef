// Package label maintains a live tree of label nodes mirroring the remote
// slash-delimited label namespace. Refreshes reconcile the remote label list
// against the previous tree so that node handles already held by callers
// stay valid, while labels removed remotely are evicted.
package label

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a label id or name is not in the registry.
var ErrNotFound = errors.New("label not found")

// Registry is a bidirectional id/name lookup table over label nodes. Every
// node present under one key is present under the other.
type Registry struct {
	byID   map[string]*Node
	byName map[string]*Node
}

func newRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Node),
		byName: make(map[string]*Node),
	}
}

// Set registers a node under both its id and its name.
func (r *Registry) Set(n *Node) {
	r.byID[n.id] = n
	r.byName[n.name] = n
}

// Pop removes a node from both mappings.
func (r *Registry) Pop(n *Node) {
	delete(r.byID, n.id)
	delete(r.byName, n.name)
}

// ByID returns the node registered under id.
func (r *Registry) ByID(id string) (*Node, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	return n, nil
}

// ByName returns the node registered under name.
func (r *Registry) ByName(name string) (*Node, error) {
	n, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("name %q: %w", name, ErrNotFound)
	}
	return n, nil
}

// ContainsID reports whether id is registered.
func (r *Registry) ContainsID(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// ContainsName reports whether name is registered.
func (r *Registry) ContainsName(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.byID)
}

func (r *Registry) lookupID(id string) (*Node, bool) {
	n, ok := r.byID[id]
	return n, ok
}
