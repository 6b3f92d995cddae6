package trace

import (
	"context"
	"log/slog"
)

// LogSink writes events to a structured logger.
//
// Version conflicts are warnings; selections and archives are info; entry
// level decisions are debug.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink wraps logger. A nil logger falls back to slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Record(e Event) {
	if s == nil || s.Logger == nil {
		return
	}
	ctx := context.Background()
	switch e.Kind {
	case EventVersionConflict:
		s.Logger.LogAttrs(ctx, slog.LevelWarn, "Found multiple versions of dependency; keeping the first",
			slog.String("kept", e.Related), slog.String("dropped", e.Artifact))
	case EventDuplicateSkipped:
		s.Logger.LogAttrs(ctx, slog.LevelDebug, "Dependency already selected",
			slog.String("artifact", e.Artifact))
	case EventArtifactSelected:
		s.Logger.LogAttrs(ctx, slog.LevelDebug, "Selected dependency",
			slog.String("artifact", e.Artifact))
	case EventArtifactUsed:
		s.Logger.LogAttrs(ctx, slog.LevelInfo, "Using dependency",
			slog.String("artifact", e.Artifact), slog.String("location", e.Location))
	case EventEntryAggregated:
		s.Logger.LogAttrs(ctx, slog.LevelDebug, "Processing entry",
			slog.String("entry", e.Entry), slog.String("as", e.Reason), slog.String("artifact", e.Artifact))
	case EventEntryIgnored:
		s.Logger.LogAttrs(ctx, slog.LevelDebug, "Ignoring entry of unknown type",
			slog.String("entry", e.Entry), slog.String("artifact", e.Artifact))
	case EventEntryPackaged:
		s.Logger.LogAttrs(ctx, slog.LevelDebug, "Packaged file",
			slog.String("entry", e.Entry), slog.String("source", e.Location))
	case EventArchiveWritten:
		s.Logger.LogAttrs(ctx, slog.LevelInfo, "Archive written",
			slog.String("location", e.Location))
	default:
		s.Logger.LogAttrs(ctx, slog.LevelDebug, "Trace event", slog.String("kind", string(e.Kind)))
	}
}
