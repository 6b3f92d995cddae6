// Package core provides the domain models for web resource archive (WRA)
// assembly and packaging.
//
// # Design Principles
//
// All structures in this package adhere to the following constraints:
//
//  1. No implied fields that could affect determinism (e.g., timestamps)
//  2. Orderings are explicit: nothing depends on map iteration or on the
//     order in which the file system lists a directory
//  3. Collaborators (resolvers, sinks) are interfaces injected by the caller
//
// # Core Types
//
// ArtifactIdentity: the coordinates of a dependency. Two identities name the
// same dependency when Group and Name match, whatever the Version.
// DependencyNode: one node of an already-resolved dependency tree.
// SelectionResult: the ordered, deduplicated WRA nodes chosen from a tree.
// PackagedFile: a source file together with the archive entry it becomes.
// ProducedArtifact: the archive written by packaging.
//
// Errors raised by the assembly and packaging operations are defined in
// errors.go and share the Code/Cause shape.
package core
