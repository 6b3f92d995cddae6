package archive

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"wra/internal/atomicfile"
	"wra/internal/core"
	"wra/internal/trace"
)

// Builder packages a WRA source directory into a zip archive.
type Builder struct {
	// Sink receives one event per packaged file and one for the archive.
	Sink trace.Sink

	// PreserveLayout keeps subdirectories below js/ and css/ instead of
	// flattening every file to its base name.
	PreserveLayout bool
}

// NewBuilder creates a Builder reporting to sink.
func NewBuilder(sink trace.Sink) *Builder {
	return &Builder{Sink: sink}
}

// Build writes every .js file of sourceDir to js/<name> and every .css file
// to css/<name> in a new archive at target. Files are added in relative path
// order, deflated at maximum compression and stamped with no modification
// time, so identical sources produce identical archives.
//
// The archive is written beside target and renamed into place only when
// complete; on failure target is left untouched.
//
// Returns:
//   - InvalidSourceDirectoryError if sourceDir is missing or not a directory
//   - OutputDirectoryError if target's directory cannot be created
//   - ArchiveWriteError for any read or write failure, and for two files
//     that would share an entry path
func (b *Builder) Build(sourceDir, target string) (*core.ProducedArtifact, error) {
	h := &core.Harvester{PreserveLayout: b.PreserveLayout}
	files, err := h.Harvest(sourceDir)
	if err != nil {
		return nil, err
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return nil, &core.ArchiveWriteError{Code: core.CodeWriteArchive, Path: target, Cause: err}
	}
	outDir := filepath.Dir(absTarget)
	if err := atomicfile.EnsureDir(outDir); err != nil {
		return nil, &core.OutputDirectoryError{Path: outDir, Cause: err}
	}

	out, err := atomicfile.Create(absTarget, 0o644)
	if err != nil {
		return nil, &core.ArchiveWriteError{Code: core.CodeWriteArchive, Path: absTarget, Cause: err}
	}
	defer out.Close()

	digester := core.NewDigester()
	bw := bufio.NewWriter(io.MultiWriter(out, digester))
	zw := newArchiveWriter(bw)
	entries := make([]string, 0, len(files))
	for _, f := range files {
		if err := addFile(zw, f); err != nil {
			return nil, err
		}
		entries = append(entries, f.EntryPath)
		trace.SafeRecord(b.Sink, trace.Event{
			Kind:     trace.EventEntryPackaged,
			Entry:    f.EntryPath,
			Location: f.SourcePath,
			Reason:   f.Kind.String(),
		})
	}

	if err := zw.Close(); err != nil {
		return nil, &core.ArchiveWriteError{Code: core.CodeWriteArchive, Path: absTarget, Cause: err}
	}
	if err := bw.Flush(); err != nil {
		return nil, &core.ArchiveWriteError{Code: core.CodeWriteArchive, Path: absTarget, Cause: err}
	}
	digest, size := digester.Sum()
	if err := out.Commit(); err != nil {
		return nil, &core.ArchiveWriteError{Code: core.CodeWriteArchive, Path: absTarget, Cause: err}
	}
	trace.SafeRecord(b.Sink, trace.Event{Kind: trace.EventArchiveWritten, Location: absTarget})

	return &core.ProducedArtifact{
		Path:    absTarget,
		Entries: entries,
		Size:    size,
		Digest:  digest,
	}, nil
}

func addFile(zw *zip.Writer, f core.PackagedFile) error {
	src, err := os.Open(f.SourcePath)
	if err != nil {
		return &core.ArchiveWriteError{Code: core.CodeReadSource, Path: f.SourcePath, Cause: err}
	}
	defer src.Close()

	hdr := &zip.FileHeader{Name: f.EntryPath, Method: zip.Deflate}
	hdr.SetMode(0o644)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return &core.ArchiveWriteError{Code: core.CodeWriteArchive, Path: f.EntryPath, Cause: err}
	}

	readErr, writeErr := copyEntry(w, src)
	if readErr != nil {
		return &core.ArchiveWriteError{Code: core.CodeReadSource, Path: f.SourcePath, Cause: readErr}
	}
	if writeErr != nil {
		return &core.ArchiveWriteError{Code: core.CodeWriteArchive, Path: f.EntryPath, Cause: writeErr}
	}
	return nil
}
