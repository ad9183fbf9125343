package diagnostic

import (
	"context"
	"log/slog"
)

// Sink receives per-field runtime faults during mapping. Faults are
// best-effort trace output; they are never raised back to the caller.
type Sink interface {
	FieldFault(typePair, field string, err error)
}

// SlogSink traces faults through a structured logger at debug level.
type SlogSink struct {
	Logger *slog.Logger
}

// NewSlogSink wraps a logger as a fault sink. A nil logger uses slog.Default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogSink{Logger: logger}
}

// FieldFault implements Sink.
func (s *SlogSink) FieldFault(typePair, field string, err error) {
	s.Logger.LogAttrs(context.Background(), slog.LevelDebug, "field mapping fault",
		slog.String("pair", typePair),
		slog.String("field", field),
		slog.String("error", err.Error()),
	)
}

// Discard is a Sink that drops all faults.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) FieldFault(string, string, error) {}
