package archive

import (
	"io"

	"github.com/klauspost/compress/zip"

	"wra/internal/core"
	"wra/internal/trace"
)

// Aggregator concatenates the JS and CSS entries of a sequence of archives.
type Aggregator struct {
	// Sink receives one event per archive used and per entry seen.
	Sink trace.Sink

	// Separator, when non-empty, is written to an output after every entry
	// copied to it. The default is the raw byte concatenation.
	Separator []byte
}

// NewAggregator creates an Aggregator reporting to sink.
func NewAggregator(sink trace.Sink) *Aggregator {
	return &Aggregator{Sink: sink}
}

// Aggregate streams every ".js" entry of every node's archive to jsOut and
// every ".css" entry to cssOut. Other entries are ignored.
//
// Nodes are processed in the given order and the entries of each archive in
// the container's own order, so the outputs are exactly the concatenation of
// the matching entries in (node, entry) order.
//
// Returns:
//   - MissingArtifactFileError if any node has no ResolvedLocation (checked
//     before anything is written)
//   - CorruptArchiveError if an archive cannot be opened or an entry cannot
//     be decoded
//   - IOFailureError if writing to jsOut or cssOut fails
//
// Output already written when an error occurs is left on the writers.
func (a *Aggregator) Aggregate(nodes []*core.DependencyNode, jsOut, cssOut io.Writer) error {
	for _, n := range nodes {
		if n.ResolvedLocation == "" {
			return &core.MissingArtifactFileError{Artifact: n.Identity}
		}
	}

	for _, n := range nodes {
		trace.SafeRecord(a.Sink, trace.Event{
			Kind:     trace.EventArtifactUsed,
			Artifact: n.Identity.String(),
			Location: n.ResolvedLocation,
		})
		if err := a.aggregateNode(n, jsOut, cssOut); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) aggregateNode(n *core.DependencyNode, jsOut, cssOut io.Writer) error {
	zr, err := zip.OpenReader(n.ResolvedLocation)
	if err != nil {
		return &core.CorruptArchiveError{Artifact: n.Identity, Location: n.ResolvedLocation, Cause: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		var out io.Writer
		var sinkName string
		kind := core.KindOf(f.Name)
		switch kind {
		case core.KindJS:
			out, sinkName = jsOut, "js"
		case core.KindCSS:
			out, sinkName = cssOut, "css"
		default:
			trace.SafeRecord(a.Sink, trace.Event{
				Kind:     trace.EventEntryIgnored,
				Artifact: n.Identity.String(),
				Entry:    f.Name,
				Reason:   "UnknownType",
			})
			continue
		}

		trace.SafeRecord(a.Sink, trace.Event{
			Kind:     trace.EventEntryAggregated,
			Artifact: n.Identity.String(),
			Entry:    f.Name,
			Reason:   kind.String(),
		})
		if err := a.copyFile(n, f, out, sinkName); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) copyFile(n *core.DependencyNode, f *zip.File, out io.Writer, sinkName string) error {
	rc, err := f.Open()
	if err != nil {
		return &core.CorruptArchiveError{Artifact: n.Identity, Location: n.ResolvedLocation, Cause: err}
	}
	defer rc.Close()

	readErr, writeErr := copyEntry(out, rc)
	if writeErr != nil {
		return &core.IOFailureError{Sink: sinkName, Artifact: n.Identity, Entry: f.Name, Cause: writeErr}
	}
	if readErr != nil {
		return &core.CorruptArchiveError{Artifact: n.Identity, Location: n.ResolvedLocation, Cause: readErr}
	}
	if len(a.Separator) > 0 {
		wn, err := out.Write(a.Separator)
		if err == nil && wn < len(a.Separator) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return &core.IOFailureError{Sink: sinkName, Artifact: n.Identity, Entry: f.Name, Cause: err}
		}
	}
	return nil
}
