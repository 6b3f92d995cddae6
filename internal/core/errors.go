package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every fatal error type below matches exactly one of these
// through errors.Is, while Unwrap exposes the underlying cause.
var (
	ErrInvalidSourceDirectory = errors.New("invalid source directory")
	ErrOutputDirectory        = errors.New("output directory error")
	ErrMissingArtifactFile    = errors.New("missing artifact file")
	ErrCorruptArchive         = errors.New("corrupt archive")
	ErrArchiveWrite           = errors.New("archive write error")
	ErrIOFailure              = errors.New("i/o failure")
	ErrResolutionFailure      = errors.New("resolution failure")
)

// InvalidSourceDirectoryError reports a packaging source that is missing or
// is not a directory.
type InvalidSourceDirectoryError struct {
	Path  string
	Cause error
}

func (e *InvalidSourceDirectoryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("WRA source %q is not a directory: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("WRA source %q is not a directory", e.Path)
}

func (e *InvalidSourceDirectoryError) Unwrap() error {
	return e.Cause
}

func (e *InvalidSourceDirectoryError) Is(target error) bool {
	return target == ErrInvalidSourceDirectory
}

// OutputDirectoryError reports an output directory that could not be
// created, or a path that exists but is not a directory.
type OutputDirectoryError struct {
	Path  string
	Cause error
}

func (e *OutputDirectoryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("unable to create output directory %q: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("expected %q to be a directory, but was not", e.Path)
}

func (e *OutputDirectoryError) Unwrap() error {
	return e.Cause
}

func (e *OutputDirectoryError) Is(target error) bool {
	return target == ErrOutputDirectory
}

// MissingArtifactFileError reports a selected node without a resolved file.
type MissingArtifactFileError struct {
	Artifact ArtifactIdentity
}

func (e *MissingArtifactFileError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("unable to locate %s: no resolved artifact file", e.Artifact)
}

func (e *MissingArtifactFileError) Is(target error) bool {
	return target == ErrMissingArtifactFile
}

// CorruptArchiveError reports a container that could not be opened or
// decoded.
type CorruptArchiveError struct {
	Artifact ArtifactIdentity
	Location string
	Cause    error
}

func (e *CorruptArchiveError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("corrupt archive for %s at %q: %v", e.Artifact, e.Location, e.Cause)
}

func (e *CorruptArchiveError) Unwrap() error {
	return e.Cause
}

func (e *CorruptArchiveError) Is(target error) bool {
	return target == ErrCorruptArchive
}

// Archive write error codes.
const (
	CodeReadSource     = "ReadSource"
	CodeWriteArchive   = "WriteArchive"
	CodeEntryCollision = "EntryCollision"
)

// ArchiveWriteError reports a failure while packaging an archive.
type ArchiveWriteError struct {
	Code    string
	Path    string
	Message string
	Cause   error
}

func (e *ArchiveWriteError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("archive write error")
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " %q", e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ArchiveWriteError) Unwrap() error {
	return e.Cause
}

func (e *ArchiveWriteError) Is(target error) bool {
	return target == ErrArchiveWrite
}

// IOFailureError reports a failed write to an aggregation sink.
type IOFailureError struct {
	// Sink names the output ("js" or "css").
	Sink     string
	Artifact ArtifactIdentity
	Entry    string
	Cause    error
}

func (e *IOFailureError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("writing %s output (entry %q of %s): %v", e.Sink, e.Entry, e.Artifact, e.Cause)
}

func (e *IOFailureError) Unwrap() error {
	return e.Cause
}

func (e *IOFailureError) Is(target error) bool {
	return target == ErrIOFailure
}

// ResolutionFailureError reports that the resolver could not provide a file
// for every requested artifact. Attempted is the full request.
type ResolutionFailureError struct {
	Attempted []ArtifactIdentity
	Cause     error
}

func (e *ResolutionFailureError) Error() string {
	if e == nil {
		return ""
	}
	keys := make([]string, 0, len(e.Attempted))
	for _, id := range e.Attempted {
		keys = append(keys, id.String())
	}
	return fmt.Sprintf("unable to resolve dependencies [%s]: %v", strings.Join(keys, ", "), e.Cause)
}

func (e *ResolutionFailureError) Unwrap() error {
	return e.Cause
}

func (e *ResolutionFailureError) Is(target error) bool {
	return target == ErrResolutionFailure
}

// VersionConflict is the non-fatal signal raised when two WRA nodes name
// the same dependency with different versions. Kept was accumulated first;
// Dropped is discarded.
type VersionConflict struct {
	Kept    ArtifactIdentity
	Dropped ArtifactIdentity
}

func (c VersionConflict) String() string {
	return fmt.Sprintf("found multiple versions of %s:%s: keeping %s, dropping %s",
		c.Kept.Group, c.Kept.Name, c.Kept.Version, c.Dropped.Version)
}
