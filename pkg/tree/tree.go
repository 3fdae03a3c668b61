package tree

import (
	"fmt"

	"github.com/oscquery/oscquery-go/pkg/model"
)

// Tree is the owned hierarchy of nodes rooted at "/". It carries no
// internal locking; the Coordinator is its sole writer and readers go
// through the coordinator's read views.
type Tree struct {
	root  *Node
	index map[string]*Node
}

// New creates a tree containing only the root container.
func New() *Tree {
	root := &Node{
		fullPath: "/",
		segment:  "",
		access:   model.AccessNoValue,
		children: make(map[string]*Node),
	}
	return &Tree{
		root:  root,
		index: map[string]*Node{"/": root},
	}
}

// Root returns the root container.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of nodes, including the root.
func (t *Tree) Len() int { return len(t.index) }

// Resolve looks up the node at an absolute path.
func (t *Tree) Resolve(path string) (*Node, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	node := t.root
	for _, seg := range segments {
		node = node.children[seg]
		if node == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
	}
	return node, nil
}

// Insert creates a node at the given path, creating intermediate
// containers as needed. It returns the node and the full paths of every
// node created, parents first.
//
// Inserting over an existing node is a no-op when the existing node has
// the same shape (access mode and type tags); otherwise it fails with
// ErrConflict. A method node in the middle of the path also conflicts.
func (t *Tree) Insert(path string, spec Spec) (*Node, []string, error) {
	if err := spec.Validate(); err != nil {
		return nil, nil, err
	}
	segments, err := splitPath(path)
	if err != nil {
		return nil, nil, err
	}
	if len(segments) == 0 {
		return nil, nil, fmt.Errorf("%w: cannot insert over root", ErrConflict)
	}

	var added []string
	node := t.root
	for i, seg := range segments {
		last := i == len(segments)-1
		child := node.children[seg]
		if child == nil {
			childSpec := Container("")
			if last {
				childSpec = spec
			}
			child = t.attach(node, seg, childSpec)
			added = append(added, child.fullPath)
		} else if last {
			if !compatibleNode(child, spec) {
				return nil, nil, fmt.Errorf("%w: %s", ErrConflict, path)
			}
		} else if !child.IsContainer() {
			return nil, nil, fmt.Errorf("%w: %s is not a container", ErrConflict, child.fullPath)
		}
		node = child
	}
	return node, added, nil
}

// attach creates and links a child node under parent.
func (t *Tree) attach(parent *Node, segment string, spec Spec) *Node {
	values := make([]model.Value, len(spec.Values))
	copy(values, spec.Values)
	var slots []model.Slot
	if len(spec.Slots) > 0 {
		slots = make([]model.Slot, len(spec.Slots))
		copy(slots, spec.Slots)
	}
	child := &Node{
		fullPath:    joinPath(parent.fullPath, segment),
		segment:     segment,
		access:      spec.Access,
		description: spec.Description,
		values:      values,
		slots:       slots,
		children:    make(map[string]*Node),
	}
	parent.children[segment] = child
	t.index[child.fullPath] = child
	return child
}

// compatibleNode reports whether an existing node already satisfies a
// spec (re-inserting it is then a no-op).
func compatibleNode(n *Node, spec Spec) bool {
	return n.access == spec.Access && n.TypeString() == model.TagsOf(spec.Values)
}

// Remove deletes the subtree rooted at path and returns the removed
// full paths, leaves first. Removing the root is rejected.
func (t *Tree) Remove(path string) ([]string, error) {
	node, err := t.Resolve(path)
	if err != nil {
		return nil, err
	}
	if node == t.root {
		return nil, fmt.Errorf("%w: cannot remove root", ErrConflict)
	}

	var removed []string
	var collect func(n *Node)
	collect = func(n *Node) {
		for _, name := range n.ChildNames() {
			collect(n.children[name])
		}
		delete(t.index, n.fullPath)
		removed = append(removed, n.fullPath)
	}
	collect(node)

	parent, _ := t.Resolve(parentPath(node.fullPath))
	if parent != nil {
		delete(parent.children, node.segment)
	}
	return removed, nil
}

// SetValue replaces the node's value content on behalf of a network
// peer. The node's access mode must permit writes.
func (t *Tree) SetValue(path string, values []model.Value) ([]model.Value, bool, error) {
	node, err := t.Resolve(path)
	if err != nil {
		return nil, false, err
	}
	if !node.access.CanWrite() {
		return nil, false, fmt.Errorf("%w: %s is %s", ErrAccess, path, node.access)
	}
	return t.replaceValues(node, values)
}

// UpdateValue replaces the node's value content on behalf of the host
// application. Only requires the node to carry a value; read-only
// nodes are updated this way.
func (t *Tree) UpdateValue(path string, values []model.Value) ([]model.Value, bool, error) {
	node, err := t.Resolve(path)
	if err != nil {
		return nil, false, err
	}
	if !node.access.HasValue() {
		return nil, false, fmt.Errorf("%w: %s is a container", ErrAccess, path)
	}
	return t.replaceValues(node, values)
}

// replaceValues validates, clips and stores a value sequence. The tree
// is left unchanged on any error. The returned bool reports whether the
// stored content actually changed.
func (t *Tree) replaceValues(node *Node, values []model.Value) ([]model.Value, bool, error) {
	if !model.Compatible(node.values, values) {
		return nil, false, fmt.Errorf("%w: %s expects %q, got %q",
			ErrTypeMismatch, node.fullPath, node.TypeString(), model.TagsOf(values))
	}

	// Clip/validate every slot before touching the node (atomic per edit).
	stored := make([]model.Value, len(values))
	for i, v := range values {
		applied, err := node.Slot(i).Apply(v)
		if err != nil {
			return nil, false, fmt.Errorf("%w: slot %d of %s: %v", ErrValidation, i, node.fullPath, err)
		}
		stored[i] = applied
	}

	changed := false
	for i := range stored {
		if !stored[i].Equal(node.values[i]) {
			changed = true
			break
		}
	}
	node.values = stored

	out := make([]model.Value, len(stored))
	copy(out, stored)
	return out, changed, nil
}

// parentPath returns the parent of an absolute path ("/" for top-level
// entries).
func parentPath(path string) string {
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "/"
}
