package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolutionRequest is the set of artifacts submitted to a resolver.
//
// Artifacts are unique by canonical key and sorted by ArtifactIdentity.Compare,
// so the same selection always produces the same request.
type ResolutionRequest struct {
	Artifacts []ArtifactIdentity
}

// NewResolutionRequest builds the canonical request for the given nodes.
func NewResolutionRequest(nodes []*DependencyNode) ResolutionRequest {
	byKey := make(map[string]ArtifactIdentity, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		key := n.Identity.Key()
		if _, seen := byKey[key]; !seen {
			byKey[key] = n.Identity
		}
	}

	// CRITICAL: never submit in map order
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	artifacts := make([]ArtifactIdentity, 0, len(keys))
	for _, k := range keys {
		artifacts = append(artifacts, byKey[k])
	}
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].Compare(artifacts[j]) < 0
	})
	return ResolutionRequest{Artifacts: artifacts}
}

// ArtifactResolver materializes artifact files.
//
// Resolve returns a location per canonical key (ArtifactIdentity.Key). An
// error means the request as a whole failed.
type ArtifactResolver interface {
	Resolve(ctx context.Context, req ResolutionRequest) (map[string]string, error)
}

// AttachLocations resolves every node and records the result in
// ResolvedLocation. A resolver error is returned as a ResolutionFailureError
// carrying the full request.
//
// Nodes the resolver did not answer for keep their current location; the
// aggregator reports any that are still empty.
func AttachLocations(ctx context.Context, resolver ArtifactResolver, nodes []*DependencyNode) error {
	if resolver == nil {
		return errors.New("nil resolver")
	}
	req := NewResolutionRequest(nodes)
	if len(req.Artifacts) == 0 {
		return nil
	}
	locations, err := resolver.Resolve(ctx, req)
	if err != nil {
		return &ResolutionFailureError{Attempted: req.Artifacts, Cause: err}
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if loc := locations[n.Identity.Key()]; loc != "" {
			n.ResolvedLocation = loc
		}
	}
	return nil
}

// DefaultRepositoryExtension is the file extension of packaged WRA files.
const DefaultRepositoryExtension = "zip"

// LocalRepository resolves artifacts from a repository directory laid out as
// <root>/<group path>/<name>/<version>/<name>-<version>.<extension>, where
// the group path is the group with '.' replaced by '/'.
type LocalRepository struct {
	Root string

	// Extension defaults to DefaultRepositoryExtension.
	Extension string
}

// NewLocalRepository creates a resolver rooted at root.
func NewLocalRepository(root string) *LocalRepository {
	return &LocalRepository{Root: root, Extension: DefaultRepositoryExtension}
}

// Path returns where id is expected to live in the repository.
func (r *LocalRepository) Path(id ArtifactIdentity) string {
	ext := r.Extension
	if ext == "" {
		ext = DefaultRepositoryExtension
	}
	groupPath := strings.ReplaceAll(id.Group, ".", "/")
	return filepath.Join(r.Root, filepath.FromSlash(groupPath), id.Name, id.Version,
		fmt.Sprintf("%s-%s.%s", id.Name, id.Version, ext))
}

// Resolve implements ArtifactResolver.
func (r *LocalRepository) Resolve(ctx context.Context, req ResolutionRequest) (map[string]string, error) {
	out := make(map[string]string, len(req.Artifacts))
	var errs []error
	for _, id := range req.Artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Path(id)
		if err := requireRegularFile(p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		out[id.Key()] = p
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// DescriptorLocations resolves artifacts from locations declared alongside
// the dependency tree, keyed by ArtifactIdentity.Key.
type DescriptorLocations map[string]string

// Resolve implements ArtifactResolver. Every requested artifact must have a
// declared location that exists.
func (d DescriptorLocations) Resolve(ctx context.Context, req ResolutionRequest) (map[string]string, error) {
	out := make(map[string]string, len(req.Artifacts))
	var errs []error
	for _, id := range req.Artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := d[id.Key()]
		if p == "" {
			errs = append(errs, fmt.Errorf("%s: no location declared", id))
			continue
		}
		if err := requireRegularFile(p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		out[id.Key()] = p
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func requireRegularFile(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", p)
	}
	return nil
}
