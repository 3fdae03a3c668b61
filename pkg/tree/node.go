package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oscquery/oscquery-go/pkg/model"
)

// Spec describes the attributes of a node to insert.
type Spec struct {
	// Access is the node's access mode. AccessNoValue makes a pure
	// container; Values and Slots must be empty for containers.
	Access model.Access

	// Description is an optional human-readable description.
	Description string

	// Values are the initial typed value slots.
	Values []model.Value

	// Slots carries optional per-slot range/clip/unit metadata.
	// If non-nil it must be the same length as Values.
	Slots []model.Slot
}

// Validate checks the spec's internal consistency.
func (s Spec) Validate() error {
	if s.Access > model.AccessReadWrite {
		return fmt.Errorf("%w: invalid access %d", ErrValidation, s.Access)
	}
	if !s.Access.HasValue() {
		if len(s.Values) > 0 || len(s.Slots) > 0 {
			return fmt.Errorf("%w: container may not carry values or slots", ErrValidation)
		}
		return nil
	}
	if s.Slots != nil && len(s.Slots) != len(s.Values) {
		return fmt.Errorf("%w: %d slots for %d values", ErrValidation, len(s.Slots), len(s.Values))
	}
	for i, slot := range s.Slots {
		hasBounds := slot.Range.Min != nil || slot.Range.Max != nil
		if hasBounds && !s.Values[i].Kind().IsNumeric() {
			return fmt.Errorf("%w: MIN/MAX range on non-numeric slot %d (%s)",
				ErrValidation, i, s.Values[i].Kind())
		}
	}
	return nil
}

// Container returns a Spec for a value-less container node.
func Container(description string) Spec {
	return Spec{Access: model.AccessNoValue, Description: description}
}

// Node is one entry in the namespace. Its full path is immutable after
// creation; renaming a node is a remove plus an add.
type Node struct {
	fullPath    string
	segment     string
	access      model.Access
	description string
	values      []model.Value
	slots       []model.Slot
	children    map[string]*Node
}

// FullPath returns the absolute slash-delimited address.
func (n *Node) FullPath() string { return n.fullPath }

// Segment returns the last path segment.
func (n *Node) Segment() string { return n.segment }

// Access returns the access mode.
func (n *Node) Access() model.Access { return n.access }

// Description returns the description, empty if unset.
func (n *Node) Description() string { return n.description }

// IsContainer reports whether the node is a pure container.
func (n *Node) IsContainer() bool { return !n.access.HasValue() }

// Values returns a copy of the current value slots.
func (n *Node) Values() []model.Value {
	if n.values == nil {
		return nil
	}
	out := make([]model.Value, len(n.values))
	copy(out, n.values)
	return out
}

// Slot returns the metadata for value slot i. The zero Slot is returned
// when no metadata was declared.
func (n *Node) Slot(i int) model.Slot {
	if i < len(n.slots) {
		return n.slots[i]
	}
	return model.Slot{}
}

// NumSlots returns the number of value slots.
func (n *Node) NumSlots() int { return len(n.values) }

// HasSlotMetadata reports whether any slot metadata was declared.
func (n *Node) HasSlotMetadata() bool { return len(n.slots) > 0 }

// TypeString returns the OSC type tag string of the current values,
// empty for containers.
func (n *Node) TypeString() string { return model.TagsOf(n.values) }

// Child returns the child at the given segment, nil if absent.
func (n *Node) Child(segment string) *Node { return n.children[segment] }

// ChildNames returns the child segments in sorted order.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitPath splits an absolute address into segments. "/" yields an
// empty slice. Empty segments (double or trailing slashes) are invalid.
func splitPath(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("%w: address must be absolute: %q", ErrNotFound, path)
	}
	if path == "/" {
		return nil, nil
	}
	segments := strings.Split(path[1:], "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty path segment in %q", ErrNotFound, path)
		}
	}
	return segments, nil
}

// joinPath builds an absolute address from parent path and segment.
func joinPath(parent, segment string) string {
	if parent == "/" {
		return "/" + segment
	}
	return parent + "/" + segment
}
