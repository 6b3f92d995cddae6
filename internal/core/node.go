package core

// DependencyNode is one node of an already-resolved dependency tree.
//
// Nodes are owned by their tree and carry no back-references. A tree is
// built once per invocation and is not mutated during traversal; only
// ResolvedLocation is attached afterwards, by AttachLocations.
type DependencyNode struct {
	Identity ArtifactIdentity

	// Children are the direct dependencies, in declaration order.
	Children []*DependencyNode

	// ResolvedLocation is the path of the artifact file, empty until resolved.
	ResolvedLocation string
}

// NewNode is a convenience constructor used by tree loaders and tests.
func NewNode(id ArtifactIdentity, children ...*DependencyNode) *DependencyNode {
	return &DependencyNode{Identity: id, Children: children}
}

// String returns the identity of the node.
func (n *DependencyNode) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.Identity.String()
}

// SelectionResult is the ordered list of WRA nodes selected from a tree.
//
// No two entries share the same (Group, Name).
type SelectionResult []*DependencyNode

// Identities returns the identities of the selected nodes in order.
func (s SelectionResult) Identities() []ArtifactIdentity {
	out := make([]ArtifactIdentity, 0, len(s))
	for _, n := range s {
		out = append(out, n.Identity)
	}
	return out
}
