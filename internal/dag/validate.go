package dag

import (
	"strings"

	"wra/internal/core"
)

// Validate checks that root describes a well-formed dependency tree.
//
// It rejects:
//   - a nil root or nil children
//   - nodes with an empty group, name, version or type
//   - any cycle (a node reachable from itself)
//
// A subtree shared by several parents is accepted; Collect deduplicates it.
func Validate(root *core.DependencyNode) error {
	if root == nil {
		return invalidf("nil root")
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[*core.DependencyNode]int)

	type frame struct {
		node *core.DependencyNode
		next int
	}
	stack := []frame{{node: root}}
	if err := checkIdentity(root); err != nil {
		return err
	}
	color[root] = gray

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.node.Children) {
			color[top.node] = black
			stack = stack[:len(stack)-1]
			continue
		}
		idx := top.next
		child := top.node.Children[idx]
		top.next++

		if child == nil {
			return invalidf("nil child at index %d of %s", idx, top.node)
		}
		switch color[child] {
		case gray:
			path := make([]string, 0, len(stack)+1)
			inCycle := false
			for _, f := range stack {
				if f.node == child {
					inCycle = true
				}
				if inCycle {
					path = append(path, f.node.String())
				}
			}
			path = append(path, child.String())
			return cycleError(path)
		case black:
			continue
		}
		if err := checkIdentity(child); err != nil {
			return err
		}
		color[child] = gray
		stack = append(stack, frame{node: child})
	}
	return nil
}

func checkIdentity(n *core.DependencyNode) error {
	id := n.Identity
	var missing []string
	if strings.TrimSpace(id.Group) == "" {
		missing = append(missing, "group")
	}
	if strings.TrimSpace(id.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(id.Version) == "" {
		missing = append(missing, "version")
	}
	if strings.TrimSpace(id.Type) == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return invalidf("%s: missing %s", n, strings.Join(missing, ", "))
	}
	return nil
}
