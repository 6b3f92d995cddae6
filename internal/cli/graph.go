package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wra/internal/core"
)

// descriptorNode is one dependency as written in the descriptor file.
type descriptorNode struct {
	core.ArtifactIdentity `yaml:",inline"`

	// Location is the archive file, relative to the descriptor's directory
	// unless absolute. Only WRA dependencies need one.
	Location     string           `yaml:"location"`
	Dependencies []descriptorNode `yaml:"dependencies"`
}

type descriptorFile struct {
	Project      core.ArtifactIdentity `yaml:"project"`
	Dependencies []descriptorNode      `yaml:"dependencies"`
}

// Descriptor is a loaded dependency tree together with the archive
// locations it declares.
type Descriptor struct {
	Root      *core.DependencyNode
	Locations core.DescriptorLocations
}

// DescriptorError reports an unreadable or malformed descriptor.
type DescriptorError struct {
	Path  string
	Msg   string
	Cause error
}

func (e *DescriptorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("descriptor %s: %s: %v", e.Path, e.Msg, e.Cause)
	}
	return fmt.Sprintf("descriptor %s: %s", e.Path, e.Msg)
}

func (e *DescriptorError) Unwrap() error { return e.Cause }

// LoadDescriptor reads the dependency tree at path.
//
// The loader is strict:
//   - Unknown keys and trailing documents are rejected.
//   - Every node needs a type; a missing one would silently drop a WRA.
//   - Two declarations of one artifact may not name different locations.
func LoadDescriptor(path string) (*Descriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &DescriptorError{Path: path, Msg: "read", Cause: err}
	}
	var df descriptorFile
	if err := decodeStrict(b, &df); err != nil {
		return nil, &DescriptorError{Path: path, Msg: "parse", Cause: err}
	}
	if df.Project.Type == "" {
		return nil, &DescriptorError{Path: path, Msg: "project: type is required"}
	}

	l := &descriptorLoader{
		path:      path,
		baseDir:   filepath.Dir(path),
		locations: core.DescriptorLocations{},
	}
	root := core.NewNode(df.Project)
	for _, dn := range df.Dependencies {
		child, err := l.node(dn)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return &Descriptor{Root: root, Locations: l.locations}, nil
}

type descriptorLoader struct {
	path      string
	baseDir   string
	locations core.DescriptorLocations
}

func (l *descriptorLoader) node(dn descriptorNode) (*core.DependencyNode, error) {
	id := dn.ArtifactIdentity
	if id.Type == "" {
		return nil, &DescriptorError{Path: l.path, Msg: fmt.Sprintf("%s:%s: type is required", id.Group, id.Name)}
	}
	if loc := strings.TrimSpace(dn.Location); loc != "" {
		if !filepath.IsAbs(loc) {
			loc = filepath.Join(l.baseDir, filepath.FromSlash(loc))
		}
		loc = filepath.Clean(loc)
		if prev, ok := l.locations[id.Key()]; ok && prev != loc {
			return nil, &DescriptorError{Path: l.path, Msg: fmt.Sprintf("%s: conflicting locations %q and %q", id, prev, loc)}
		}
		l.locations[id.Key()] = loc
	}

	n := core.NewNode(id)
	for _, cd := range dn.Dependencies {
		child, err := l.node(cd)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}
