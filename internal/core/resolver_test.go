package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func wra(group, name, version string) ArtifactIdentity {
	return ArtifactIdentity{Group: group, Name: name, Version: version, Type: TypeWRA}
}

type recordingResolver struct {
	requests  []ResolutionRequest
	locations map[string]string
	err       error
}

func (r *recordingResolver) Resolve(_ context.Context, req ResolutionRequest) (map[string]string, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return r.locations, nil
}

// TestNewResolutionRequest_DeduplicatedAndSorted verifies the submission is
// canonical regardless of selection order.
func TestNewResolutionRequest_DeduplicatedAndSorted(t *testing.T) {
	nodes := []*DependencyNode{
		NewNode(wra("org.b", "theme", "2.0")),
		NewNode(wra("org.a", "widgets", "1.0")),
		NewNode(wra("org.b", "theme", "2.0")),
		NewNode(wra("org.a", "core", "1.1")),
		NewNode(wra("org.a", "core", "1.0")),
	}

	req := NewResolutionRequest(nodes)
	want := []ArtifactIdentity{
		wra("org.a", "core", "1.0"),
		wra("org.a", "core", "1.1"),
		wra("org.a", "widgets", "1.0"),
		wra("org.b", "theme", "2.0"),
	}
	if diff := cmp.Diff(want, req.Artifacts); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}

	// Reversing the input must not change the request.
	reversed := make([]*DependencyNode, len(nodes))
	for i, n := range nodes {
		reversed[len(nodes)-1-i] = n
	}
	if diff := cmp.Diff(req, NewResolutionRequest(reversed)); diff != "" {
		t.Fatalf("request depends on input order (-first +reversed):\n%s", diff)
	}
}

func TestAttachLocations_SetsResolvedLocation(t *testing.T) {
	a := NewNode(wra("g", "a", "1"))
	b := NewNode(wra("g", "b", "1"))
	r := &recordingResolver{locations: map[string]string{
		"g/a/1": "/repo/a.zip",
		"g/b/1": "/repo/b.zip",
	}}

	if err := AttachLocations(context.Background(), r, []*DependencyNode{b, a}); err != nil {
		t.Fatalf("AttachLocations failed: %v", err)
	}
	if a.ResolvedLocation != "/repo/a.zip" || b.ResolvedLocation != "/repo/b.zip" {
		t.Fatalf("locations not attached: a=%q b=%q", a.ResolvedLocation, b.ResolvedLocation)
	}
	if len(r.requests) != 1 {
		t.Fatalf("expected exactly one resolution request, got %d", len(r.requests))
	}
}

func TestAttachLocations_FailureCarriesAttemptedSet(t *testing.T) {
	nodes := []*DependencyNode{NewNode(wra("g", "b", "1")), NewNode(wra("g", "a", "1"))}
	cause := errors.New("repository offline")
	r := &recordingResolver{err: cause}

	err := AttachLocations(context.Background(), r, nodes)
	var rf *ResolutionFailureError
	if !errors.As(err, &rf) {
		t.Fatalf("expected ResolutionFailureError, got %v", err)
	}
	if !errors.Is(err, cause) || !errors.Is(err, ErrResolutionFailure) {
		t.Fatalf("error does not wrap cause and kind: %v", err)
	}
	want := []ArtifactIdentity{wra("g", "a", "1"), wra("g", "b", "1")}
	if diff := cmp.Diff(want, rf.Attempted); diff != "" {
		t.Fatalf("attempted set mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalRepository_Resolve(t *testing.T) {
	root := t.TempDir()
	repo := NewLocalRepository(root)
	id := wra("com.example.web", "widgets", "1.2")

	wantPath := filepath.Join(root, "com", "example", "web", "widgets", "1.2", "widgets-1.2.zip")
	if got := repo.Path(id); got != wantPath {
		t.Fatalf("Path = %q, want %q", got, wantPath)
	}

	req := ResolutionRequest{Artifacts: []ArtifactIdentity{id}}
	if _, err := repo.Resolve(context.Background(), req); err == nil {
		t.Fatal("expected error for missing artifact")
	}

	if err := os.MkdirAll(filepath.Dir(wantPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(wantPath, []byte("zip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := repo.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got[id.Key()] != wantPath {
		t.Fatalf("resolved %q, want %q", got[id.Key()], wantPath)
	}
}

func TestDescriptorLocations_Resolve(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.zip")
	if err := os.WriteFile(present, []byte("zip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	locs := DescriptorLocations{"g/a/1": present, "g/b/1": filepath.Join(dir, "b.zip")}

	got, err := locs.Resolve(context.Background(), ResolutionRequest{Artifacts: []ArtifactIdentity{wra("g", "a", "1")}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got["g/a/1"] != present {
		t.Fatalf("unexpected location %q", got["g/a/1"])
	}

	for _, id := range []ArtifactIdentity{wra("g", "b", "1"), wra("g", "c", "1")} {
		if _, err := locs.Resolve(context.Background(), ResolutionRequest{Artifacts: []ArtifactIdentity{id}}); err == nil {
			t.Errorf("expected error resolving %s", id)
		}
	}
}
