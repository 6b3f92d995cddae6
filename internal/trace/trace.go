// Package trace records what an assembly or packaging run decided: which
// artifacts were selected, which were dropped and why, and which archive
// entries were copied or ignored.
//
// Components never log directly. They emit Events to a Sink supplied by the
// caller; the CLI fans events out to a slog-backed LogSink and, when a trace
// file is requested, to a Recorder whose Trace is written as JSON.
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind is the stable discriminator for Event.
//
// The string values appear in trace files; do not rename.
type EventKind string

const (
	EventArtifactSelected EventKind = "ArtifactSelected"
	EventDuplicateSkipped EventKind = "DuplicateSkipped"
	EventVersionConflict  EventKind = "VersionConflict"
	EventArtifactUsed     EventKind = "ArtifactUsed"
	EventEntryAggregated  EventKind = "EntryAggregated"
	EventEntryIgnored     EventKind = "EntryIgnored"
	EventEntryPackaged    EventKind = "EntryPackaged"
	EventArchiveWritten   EventKind = "ArchiveWritten"
)

// Event is a single logical decision.
//
// Determinism constraints:
//   - No timestamps.
//   - No error strings.
//   - Optional fields are omitted when empty.
type Event struct {
	Kind EventKind `json:"kind"`

	// Artifact is the identity the event is about (group:name:type:version).
	Artifact string `json:"artifact,omitempty"`

	// Related is a second identity: the retained artifact of a conflict or
	// duplicate.
	Related string `json:"related,omitempty"`

	// Entry is an archive entry path.
	Entry string `json:"entry,omitempty"`

	// Location is a file system path.
	Location string `json:"location,omitempty"`

	// Reason is a stable reason code such as "JS", "CSS" or "UnknownType".
	Reason string `json:"reason,omitempty"`
}

// Trace is the ordered record of one run.
//
// Events keep emission order. Every operation is single-threaded and walks
// its inputs in a defined order, so emission order is itself deterministic.
type Trace struct {
	Operation     string  `json:"operation"`
	SelectionHash string  `json:"selectionHash,omitempty"`
	Events        []Event `json:"events"`
}

// Validate checks basic invariants and returns a descriptive error.
func (t *Trace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.Operation == "" {
		return errors.New("operation is required")
	}
	for i, e := range t.Events {
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if needsArtifact(e.Kind) && e.Artifact == "" {
			return fmt.Errorf("events[%d].artifact is required for kind %q", i, e.Kind)
		}
		if needsEntry(e.Kind) && e.Entry == "" {
			return fmt.Errorf("events[%d].entry is required for kind %q", i, e.Kind)
		}
	}
	return nil
}

func needsArtifact(kind EventKind) bool {
	switch kind {
	case EventArtifactSelected, EventDuplicateSkipped, EventVersionConflict, EventArtifactUsed:
		return true
	default:
		return false
	}
}

func needsEntry(kind EventKind) bool {
	switch kind {
	case EventEntryAggregated, EventEntryIgnored, EventEntryPackaged:
		return true
	default:
		return false
	}
}

// CanonicalJSON returns the JSON encoding of a validated trace, newline
// terminated. A nil event list is encoded as [].
func (t Trace) CanonicalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Events == nil {
		t.Events = []Event{}
	}
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
