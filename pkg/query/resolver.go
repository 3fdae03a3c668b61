package query

import (
	"fmt"

	"github.com/oscquery/oscquery-go/pkg/tree"
)

// Resolver answers attribute queries against the live tree. All reads
// go through the coordinator's View so they never observe a
// half-applied edit.
type Resolver struct {
	coord *tree.Coordinator
}

// NewResolver returns a resolver reading through the coordinator.
func NewResolver(coord *tree.Coordinator) *Resolver {
	return &Resolver{coord: coord}
}

// Query renders the JSON view for a node. With ParamNone the full
// attribute object is returned; otherwise a single-attribute object
// {"<KEY>": ...}. Unknown paths return tree.ErrNotFound, attributes
// the node does not carry return ErrUnsupportedParam, and a VALUE read
// of a write-only node returns tree.ErrAccess.
func (r *Resolver) Query(path string, param Param) (map[string]any, error) {
	var (
		out map[string]any
		err error
	)
	r.coord.View(func(t *tree.Tree) {
		var node *tree.Node
		node, err = t.Resolve(path)
		if err != nil {
			return
		}
		out, err = renderParam(node, param)
	})
	return out, err
}

func renderParam(node *tree.Node, param Param) (map[string]any, error) {
	switch param {
	case ParamNone:
		return renderFull(node, true), nil

	case ParamAccess:
		return map[string]any{"ACCESS": int(node.Access())}, nil

	case ParamDescription:
		if node.Description() == "" {
			return nil, fmt.Errorf("%w: %s has no description", ErrUnsupportedParam, node.FullPath())
		}
		return map[string]any{"DESCRIPTION": node.Description()}, nil

	case ParamValue:
		if node.IsContainer() {
			return nil, containerErr(node, param)
		}
		if !node.Access().CanRead() {
			return nil, fmt.Errorf("%w: %s is write-only", tree.ErrAccess, node.FullPath())
		}
		return map[string]any{"VALUE": valueJSON(node)}, nil

	case ParamType:
		if node.IsContainer() {
			return nil, containerErr(node, param)
		}
		return map[string]any{"TYPE": node.TypeString()}, nil

	case ParamRange:
		if node.IsContainer() {
			return nil, containerErr(node, param)
		}
		ranges, ok := rangeJSON(node)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no range", ErrUnsupportedParam, node.FullPath())
		}
		return map[string]any{"RANGE": ranges}, nil

	case ParamClipMode:
		if node.IsContainer() {
			return nil, containerErr(node, param)
		}
		return map[string]any{"CLIPMODE": clipModeJSON(node)}, nil

	case ParamUnit:
		if node.IsContainer() {
			return nil, containerErr(node, param)
		}
		units, ok := unitJSON(node)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no unit", ErrUnsupportedParam, node.FullPath())
		}
		return map[string]any{"UNIT": units}, nil

	default:
		return nil, fmt.Errorf("%w: unknown parameter", ErrBadRequest)
	}
}

// renderFull builds the complete attribute object. Children in
// CONTENTS are rendered one level deep: a container child lists its
// own attributes but not its own CONTENTS.
func renderFull(node *tree.Node, expandChildren bool) map[string]any {
	m := map[string]any{
		"FULL_PATH": node.FullPath(),
		"ACCESS":    int(node.Access()),
	}
	if d := node.Description(); d != "" {
		m["DESCRIPTION"] = d
	}

	if node.IsContainer() {
		if expandChildren {
			contents := map[string]any{}
			for _, name := range node.ChildNames() {
				contents[name] = renderFull(node.Child(name), false)
			}
			m["CONTENTS"] = contents
		}
		return m
	}

	m["TYPE"] = node.TypeString()
	if node.Access().CanRead() {
		m["VALUE"] = valueJSON(node)
	}
	if ranges, ok := rangeJSON(node); ok {
		m["RANGE"] = ranges
	}
	if node.HasSlotMetadata() {
		m["CLIPMODE"] = clipModeJSON(node)
	}
	if units, ok := unitJSON(node); ok {
		m["UNIT"] = units
	}
	return m
}

func valueJSON(node *tree.Node) []any {
	values := node.Values()
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.JSON()
	}
	return out
}

// rangeJSON renders the per-slot RANGE array. The second return is
// false when no slot carries a range constraint.
func rangeJSON(node *tree.Node) ([]any, bool) {
	present := false
	out := make([]any, node.NumSlots())
	for i := range out {
		r := node.Slot(i).Range
		if r.IsEmpty() {
			out[i] = nil
			continue
		}
		present = true
		out[i] = r.JSON()
	}
	return out, present
}

func clipModeJSON(node *tree.Node) []any {
	out := make([]any, node.NumSlots())
	for i := range out {
		out[i] = node.Slot(i).Clip.String()
	}
	return out
}

func unitJSON(node *tree.Node) ([]any, bool) {
	present := false
	out := make([]any, node.NumSlots())
	for i := range out {
		u := node.Slot(i).Unit
		if u == "" {
			out[i] = nil
			continue
		}
		present = true
		out[i] = u
	}
	return out, present
}

func containerErr(node *tree.Node, param Param) error {
	return fmt.Errorf("%w: %s on container %s", ErrUnsupportedParam, param.Key(), node.FullPath())
}
