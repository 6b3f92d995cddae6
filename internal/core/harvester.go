package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
)

// PackagedFile is a source file selected for packaging.
type PackagedFile struct {
	// SourcePath is the file's location on disk.
	SourcePath string

	// RelativePath is the slash-separated path below the source directory.
	RelativePath string

	// EntryPath is the archive entry the file is written to.
	EntryPath string

	Kind ResourceKind
}

// Harvester collects the JS and CSS files of a WRA source directory.
//
// The harvesting process:
//  1. The source directory is walked recursively
//  2. Only regular files (or links to regular files) are considered
//  3. Paths are sorted by slash-separated relative path
//  4. Files are classified by extension; everything else is skipped
//  5. Each kept file is mapped to js/<name> or css/<name>
//
// Sorting happens before mapping, so the result never depends on the order
// in which the file system lists directories.
type Harvester struct {
	// PreserveLayout keeps the relative directory below the kind prefix
	// (js/<dir>/<name>) instead of flattening to js/<name>.
	PreserveLayout bool
}

// NewHarvester creates a Harvester that flattens entries to their base name.
func NewHarvester() *Harvester {
	return &Harvester{}
}

// Harvest returns the files of sourceDir that belong in the archive.
//
// Returns an error if:
//   - sourceDir does not exist or is not a directory (InvalidSourceDirectoryError)
//   - the tree cannot be walked (ArchiveWriteError, CodeReadSource)
//   - two files map to the same entry path (ArchiveWriteError, CodeEntryCollision)
func (h *Harvester) Harvest(sourceDir string) ([]PackagedFile, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, &InvalidSourceDirectoryError{Path: sourceDir, Cause: err}
	}
	if !info.IsDir() {
		return nil, &InvalidSourceDirectoryError{Path: sourceDir}
	}

	files, err := collectFilesFromDir(sourceDir)
	if err != nil {
		return nil, &ArchiveWriteError{Code: CodeReadSource, Path: sourceDir, Cause: err}
	}

	out := make([]PackagedFile, 0, len(files))
	claimed := make(map[string]string, len(files))
	for _, rel := range files {
		kind := KindOf(path.Base(rel))
		if kind == KindOther {
			continue
		}
		entry := kind.Prefix() + path.Base(rel)
		if h.PreserveLayout {
			entry = kind.Prefix() + rel
		}
		if prev, dup := claimed[entry]; dup {
			return nil, &ArchiveWriteError{
				Code:    CodeEntryCollision,
				Path:    entry,
				Message: fmt.Sprintf("both %q and %q map to this entry", prev, rel),
			}
		}
		claimed[entry] = rel
		out = append(out, PackagedFile{
			SourcePath:   filepath.Join(sourceDir, filepath.FromSlash(rel)),
			RelativePath: rel,
			EntryPath:    entry,
			Kind:         kind,
		})
	}
	return out, nil
}

// collectFilesFromDir recursively collects the regular files below dir.
// Returns slash-separated relative paths, sorted.
//
// Symbolic links are followed, including a linked dir itself; relative paths
// keep the link names. Dangling links are skipped and a link back to one of
// its own ancestors is an error.
func collectFilesFromDir(dir string) ([]string, error) {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, err
	}

	type pending struct {
		real      string
		rel       string
		ancestors []string
	}
	var files []string
	stack := []pending{{real: root, ancestors: []string{root}}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur.real)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			rel := path.Join(cur.rel, e.Name())
			p := filepath.Join(cur.real, e.Name())
			isLink := e.Type()&fs.ModeSymlink != 0

			info, err := os.Stat(p)
			if err != nil {
				if isLink && errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, err
			}
			switch {
			case info.IsDir():
				target := p
				if isLink {
					if target, err = filepath.EvalSymlinks(p); err != nil {
						return nil, err
					}
					if slices.Contains(cur.ancestors, target) {
						return nil, fmt.Errorf("%s: symbolic link loop to %q", rel, target)
					}
				}
				ancestors := append(slices.Clip(cur.ancestors), target)
				stack = append(stack, pending{real: target, rel: rel, ancestors: ancestors})
			case info.Mode().IsRegular():
				files = append(files, rel)
			}
		}
	}

	// CRITICAL: do not rely on filesystem ordering
	sort.Strings(files)
	return files, nil
}
