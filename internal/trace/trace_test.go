package trace

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalJSON_StableAndOmitsEmptyFields(t *testing.T) {
	tr := Trace{
		Operation:     "assemble",
		SelectionHash: "abc",
		Events: []Event{
			{Kind: EventArtifactSelected, Artifact: "g:x:wra:1.0"},
			{Kind: EventVersionConflict, Artifact: "g:x:wra:2.0", Related: "g:x:wra:1.0"},
		},
	}

	b1, err := tr.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json (1): %v", err)
	}
	b2, err := tr.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json (2): %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("expected identical bytes\n1=%s\n2=%s", b1, b2)
	}

	expected := `{
  "operation": "assemble",
  "selectionHash": "abc",
  "events": [
    {
      "kind": "ArtifactSelected",
      "artifact": "g:x:wra:1.0"
    },
    {
      "kind": "VersionConflict",
      "artifact": "g:x:wra:2.0",
      "related": "g:x:wra:1.0"
    }
  ]
}
`
	if string(b1) != expected {
		t.Fatalf("unexpected canonical bytes\nexpected=%s\nactual  =%s", expected, b1)
	}
}

func TestCanonicalJSON_EmptyEventsIsArray(t *testing.T) {
	b, err := Trace{Operation: "package"}.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	if !strings.Contains(string(b), `"events": []`) {
		t.Fatalf("expected empty array, got %s", b)
	}
}

func TestValidate_RejectsIncompleteEvents(t *testing.T) {
	cases := map[string]Trace{
		"no operation":     {Events: nil},
		"no kind":          {Operation: "assemble", Events: []Event{{Artifact: "a"}}},
		"conflict no id":   {Operation: "assemble", Events: []Event{{Kind: EventVersionConflict}}},
		"packaged no path": {Operation: "package", Events: []Event{{Kind: EventEntryPackaged}}},
	}
	for name, tr := range cases {
		t.Run(name, func(t *testing.T) {
			if err := tr.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRecorder_KeepsEmissionOrder(t *testing.T) {
	r := NewRecorder()
	events := []Event{
		{Kind: EventArtifactSelected, Artifact: "b"},
		{Kind: EventArtifactSelected, Artifact: "a"},
		{Kind: EventVersionConflict, Artifact: "a2", Related: "a"},
	}
	for _, e := range events {
		r.Record(e)
	}

	if diff := cmp.Diff(events, r.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if got := r.Filter(EventVersionConflict); len(got) != 1 || got[0].Artifact != "a2" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	tr := r.Trace("assemble", "h")
	if tr.Operation != "assemble" || tr.SelectionHash != "h" || len(tr.Events) != 3 {
		t.Fatalf("unexpected trace: %+v", tr)
	}
}

type panickingSink struct{}

func (panickingSink) Record(Event) { panic("boom") }

func TestMulti_IsolatesPanickingSinks(t *testing.T) {
	r := NewRecorder()
	s := Multi(panickingSink{}, nil, r)
	s.Record(Event{Kind: EventArchiveWritten, Location: "/out.zip"})

	if len(r.Snapshot()) != 1 {
		t.Fatal("event did not reach the recorder after a panicking sink")
	}
}

func TestLogSink_ConflictIsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s := NewLogSink(logger)

	s.Record(Event{Kind: EventArtifactSelected, Artifact: "g:x:wra:1.0"})
	s.Record(Event{Kind: EventVersionConflict, Artifact: "g:x:wra:2.0", Related: "g:x:wra:1.0"})

	out := buf.String()
	if strings.Contains(out, "Selected dependency") {
		t.Fatalf("debug event logged at warn level: %s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "dropped=g:x:wra:2.0") {
		t.Fatalf("conflict not logged as warning: %s", out)
	}
}
