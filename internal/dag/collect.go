package dag

import (
	"wra/internal/core"
	"wra/internal/trace"
)

// Collect returns the WRA nodes of the tree rooted at root, each logical
// dependency (group, name) at most once.
//
// The walk is a strict post-order depth-first traversal: a node's children
// are processed, in order, before the node itself. When a WRA node is
// evaluated:
//   - if no selected node shares its (group, name), it is appended;
//   - if one does with the same version, it is skipped silently;
//   - if one does with another version, it is skipped and a VersionConflict
//     naming both is returned and recorded on sink.
//
// The earlier selection always wins, and because children come first the
// deepest, leftmost occurrence of a dependency is the one kept.
//
// The walk uses an explicit stack, so tree depth is bounded only by memory.
// root must be a tree (see Validate); a cycle would never terminate.
func Collect(root *core.DependencyNode, sink trace.Sink) (core.SelectionResult, []core.VersionConflict) {
	if root == nil {
		return core.SelectionResult{}, nil
	}

	c := collector{sink: sink, selected: core.SelectionResult{}}

	type frame struct {
		node *core.DependencyNode
		next int
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.Children) {
			child := top.node.Children[top.next]
			top.next++
			if child != nil {
				stack = append(stack, frame{node: child})
			}
			continue
		}
		node := top.node
		stack = stack[:len(stack)-1]
		c.evaluate(node)
	}
	return c.selected, c.conflicts
}

type collector struct {
	sink      trace.Sink
	selected  core.SelectionResult
	conflicts []core.VersionConflict
}

func (c *collector) evaluate(n *core.DependencyNode) {
	if !n.Identity.IsWRA() {
		return
	}
	for _, kept := range c.selected {
		if !kept.Identity.SameDependency(n.Identity) {
			continue
		}
		if kept.Identity.Version == n.Identity.Version {
			trace.SafeRecord(c.sink, trace.Event{
				Kind:     trace.EventDuplicateSkipped,
				Artifact: n.Identity.String(),
				Related:  kept.Identity.String(),
			})
			return
		}
		c.conflicts = append(c.conflicts, core.VersionConflict{Kept: kept.Identity, Dropped: n.Identity})
		trace.SafeRecord(c.sink, trace.Event{
			Kind:     trace.EventVersionConflict,
			Artifact: n.Identity.String(),
			Related:  kept.Identity.String(),
		})
		return
	}
	c.selected = append(c.selected, n)
	trace.SafeRecord(c.sink, trace.Event{
		Kind:     trace.EventArtifactSelected,
		Artifact: n.Identity.String(),
	})
}
