package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"wra/internal/archive"
	"wra/internal/atomicfile"
	"wra/internal/core"
	"wra/internal/dag"
	"wra/internal/trace"
)

// CLIResult is the outcome of one command.
type CLIResult struct {
	ExitCode int

	// Selection and Conflicts are set by assemble once collection ran.
	Selection core.SelectionResult
	Conflicts []core.VersionConflict

	// Artifact is set by a successful package.
	Artifact *core.ProducedArtifact
}

// ExecuteAssemble aggregates the WRA dependencies of the descriptor into the
// JavaScript and stylesheet outputs.
//
// Steps:
//   - Load and validate the dependency tree.
//   - Collect the WRA selection (conflicts are logged, not fatal).
//   - Resolve every selected artifact to a file.
//   - Stream all entries into temporary outputs; sync both before renaming
//     either into place, so a failed run leaves previous outputs untouched.
//
// The trace, when enabled, is written even when the run fails.
func ExecuteAssemble(ctx context.Context, inv AssembleInvocation, logger *slog.Logger) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError
	rec := trace.NewRecorder()
	sink := trace.Multi(rec, trace.NewLogSink(logger))
	var selectionHash string

	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			execErr = fmt.Errorf("panic: %v", r)
		}
		if inv.Trace.Enabled {
			if err := writeTrace(inv.Trace.Path, rec.Trace("assemble", selectionHash)); err != nil && execErr == nil {
				res.ExitCode = ExitInternalError
				execErr = err
			}
		}
	}()

	desc, err := LoadDescriptor(inv.DescriptorPath)
	if err != nil {
		return fail(res, err)
	}
	if err := dag.Validate(desc.Root); err != nil {
		return fail(res, &DescriptorError{Path: inv.DescriptorPath, Msg: "invalid dependency tree", Cause: err})
	}

	res.Selection, res.Conflicts = dag.Collect(desc.Root, sink)
	selectionHash = core.ComputeSelectionHash(res.Selection).String()
	logger.Debug("Collected web resource archives", "count", len(res.Selection), "conflicts", len(res.Conflicts))

	var resolver core.ArtifactResolver = desc.Locations
	if inv.RepositoryDir != "" {
		resolver = core.NewLocalRepository(inv.RepositoryDir)
	}
	if err := core.AttachLocations(ctx, resolver, res.Selection); err != nil {
		return fail(res, err)
	}

	if err := writeAggregate(inv, res.Selection, sink); err != nil {
		return fail(res, err)
	}
	logger.Info("Aggregated web resources", "js", inv.JSPath, "css", inv.CSSPath)

	res.ExitCode = ExitSuccess
	return res, nil
}

func writeAggregate(inv AssembleInvocation, selection core.SelectionResult, sink trace.Sink) error {
	for _, p := range []string{inv.JSPath, inv.CSSPath} {
		dir := filepath.Dir(p)
		if err := atomicfile.EnsureDir(dir); err != nil {
			return &core.OutputDirectoryError{Path: dir, Cause: err}
		}
	}

	jsFile, err := atomicfile.Create(inv.JSPath, 0o644)
	if err != nil {
		return &core.IOFailureError{Sink: "js", Cause: err}
	}
	defer jsFile.Close()
	cssFile, err := atomicfile.Create(inv.CSSPath, 0o644)
	if err != nil {
		return &core.IOFailureError{Sink: "css", Cause: err}
	}
	defer cssFile.Close()

	jsBuf := bufio.NewWriter(jsFile)
	cssBuf := bufio.NewWriter(cssFile)
	agg := &archive.Aggregator{Sink: sink, Separator: inv.Separator}
	if err := agg.Aggregate(selection, jsBuf, cssBuf); err != nil {
		return err
	}

	if err := jsBuf.Flush(); err != nil {
		return &core.IOFailureError{Sink: "js", Cause: err}
	}
	if err := cssBuf.Flush(); err != nil {
		return &core.IOFailureError{Sink: "css", Cause: err}
	}
	if err := atomicfile.CommitAll(jsFile, cssFile); err != nil {
		sinkName := "js"
		var ce *atomicfile.CommitError
		if errors.As(err, &ce) && ce.Path == inv.CSSPath {
			sinkName = "css"
		}
		return &core.IOFailureError{Sink: sinkName, Cause: err}
	}
	return nil
}

// ExecutePackage packages the source directory into the archive and reports
// the produced artifact on out.
func ExecutePackage(ctx context.Context, inv PackageInvocation, logger *slog.Logger, out io.Writer) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError
	rec := trace.NewRecorder()
	sink := trace.Multi(rec, trace.NewLogSink(logger))

	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			execErr = fmt.Errorf("panic: %v", r)
		}
		if inv.Trace.Enabled {
			if err := writeTrace(inv.Trace.Path, rec.Trace("package", "")); err != nil && execErr == nil {
				res.ExitCode = ExitInternalError
				execErr = err
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(res, err)
	}

	b := &archive.Builder{Sink: sink, PreserveLayout: inv.PreserveLayout}
	art, err := b.Build(inv.SourceDir, inv.ArchivePath)
	if err != nil {
		return fail(res, err)
	}
	res.Artifact = art

	fmt.Fprintf(out, "Archive: %s\n", art.Path)
	fmt.Fprintf(out, "Entries: %d\n", len(art.Entries))
	fmt.Fprintf(out, "Size:    %d bytes\n", art.Size)
	fmt.Fprintf(out, "Digest:  blake3:%s\n", art.Digest)

	res.ExitCode = ExitSuccess
	return res, nil
}

func fail(res CLIResult, err error) (CLIResult, error) {
	res.ExitCode = ExitCode(err)
	return res, err
}

func writeTrace(path string, t trace.Trace) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	b, err := t.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := atomicfile.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := atomicfile.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	return nil
}
