// Package atomicfile writes output files so that readers only ever observe
// a complete file or no file at all.
//
// Data is streamed into a temporary sibling of the target, then synced,
// renamed over the target and the directory synced.
package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is an output file that becomes visible at its final path only when
// Commit succeeds.
//
// Close discards the temporary file unless Commit has already succeeded, so
// callers can always `defer f.Close()`.
type File struct {
	tmp       *os.File
	path      string
	perm      os.FileMode
	committed bool
	closed    bool
}

// Create opens a temporary file next to path. The parent directory must
// already exist.
func Create(path string, perm os.FileMode) (*File, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return nil, err
	}
	return &File{tmp: tmp, path: path, perm: perm}, nil
}

// Name returns the final path of the file.
func (f *File) Name() string { return f.path }

// Write appends to the temporary file.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.tmp.Write(p)
}

// Commit makes the written content visible at the final path.
func (f *File) Commit() error {
	return CommitAll(f)
}

// CommitError names the file whose commit failed.
type CommitError struct {
	Path string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// CommitAll makes several files visible together. Every file is synced and
// closed before the first rename, so a write-back failure on any of them
// leaves all targets untouched. Errors are *CommitError.
func CommitAll(files ...*File) error {
	for _, f := range files {
		if err := f.seal(); err != nil {
			return &CommitError{Path: f.path, Err: err}
		}
	}
	for _, f := range files {
		if err := os.Rename(f.tmp.Name(), f.path); err != nil {
			return &CommitError{Path: f.path, Err: err}
		}
		f.committed = true
	}
	for _, f := range files {
		if err := fsyncDir(filepath.Dir(f.path)); err != nil {
			return &CommitError{Path: f.path, Err: err}
		}
	}
	return nil
}

// seal flushes the temporary file to disk and closes it.
func (f *File) seal() error {
	if f.closed {
		return os.ErrClosed
	}
	if err := f.tmp.Chmod(f.perm); err != nil {
		return err
	}
	if err := f.tmp.Sync(); err != nil {
		return err
	}
	f.closed = true
	return f.tmp.Close()
}

// Close discards the temporary file if it was not committed.
func (f *File) Close() error {
	if f.committed {
		return nil
	}
	var err error
	if !f.closed {
		f.closed = true
		err = f.tmp.Close()
	}
	if rmErr := os.Remove(f.tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := Create(path, perm)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return err
	}
	return f.Commit()
}

// NotDirectoryError reports a path that exists but is not a directory.
type NotDirectoryError struct {
	Path string
}

func (e *NotDirectoryError) Error() string {
	return fmt.Sprintf("%q exists and is not a directory", e.Path)
}

// EnsureDir creates dir (and parents) if absent. A path that exists but is
// not a directory is reported as *NotDirectoryError.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return &NotDirectoryError{Path: dir}
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		return os.MkdirAll(dir, 0o755)
	default:
		return err
	}
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
