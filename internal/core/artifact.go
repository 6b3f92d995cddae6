package core

import (
	"fmt"
	"strings"
)

// TypeWRA is the dependency type aggregated by this module.
const TypeWRA = "wra"

// ArtifactIdentity is the coordinate set of a dependency.
//
// Group and Name identify the logical dependency; Version and Type qualify
// one concrete artifact of it.
type ArtifactIdentity struct {
	Group   string `yaml:"group" json:"group"`
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
	Type    string `yaml:"type" json:"type"`
}

// IsWRA reports whether the identity names a web resource archive.
func (id ArtifactIdentity) IsWRA() bool { return id.Type == TypeWRA }

// SameDependency reports whether both identities name the same logical
// dependency. Version is ignored.
func (id ArtifactIdentity) SameDependency(other ArtifactIdentity) bool {
	return id.Group == other.Group && id.Name == other.Name
}

// Key returns the canonical identity string group/name/version.
//
// The key is used to deduplicate and order resolution requests.
func (id ArtifactIdentity) Key() string {
	return id.Group + "/" + id.Name + "/" + id.Version
}

// String renders the identity the way build tools print coordinates:
// group:name:type:version.
func (id ArtifactIdentity) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", id.Group, id.Name, id.Type, id.Version)
}

// Compare orders identities lexicographically on group, then name, then
// version, then type. It returns -1, 0 or +1.
func (id ArtifactIdentity) Compare(other ArtifactIdentity) int {
	if c := strings.Compare(id.Group, other.Group); c != 0 {
		return c
	}
	if c := strings.Compare(id.Name, other.Name); c != 0 {
		return c
	}
	if c := strings.Compare(id.Version, other.Version); c != 0 {
		return c
	}
	return strings.Compare(id.Type, other.Type)
}

// ProducedArtifact is the archive written by packaging.
//
// It is the handle handed to whatever publishes the artifact.
type ProducedArtifact struct {
	// Path is the absolute location of the archive.
	Path string `json:"path"`

	// Entries lists the archive entry paths in the order they were written.
	Entries []string `json:"entries"`

	// Size is the archive size in bytes.
	Size int64 `json:"size"`

	// Digest is the hex BLAKE3 digest of the archive bytes.
	Digest string `json:"digest"`
}
