package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRecordID is the standardized structured logging key for correlation record identifiers.
	FieldRecordID = "record_id"
	// FieldTabID is the standardized structured logging key for originating browser tab identifiers.
	FieldTabID = "tab_id"
	// FieldSignal is the standardized structured logging key for signal source names (element, network, binary).
	FieldSignal = "signal"
	// FieldDurationMs is the standardized structured logging key for clip durations in milliseconds.
	FieldDurationMs = "duration_ms"
)

type contextKey int

const (
	recordIDKey contextKey = iota
	tabIDKey
)

// WithRecordID returns a context carrying a correlation record identifier.
func WithRecordID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, recordIDKey, id)
}

// WithTabID returns a context carrying an originating tab identifier.
func WithTabID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tabIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := ctx.Value(recordIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRecordID, id))
	}
	if id, ok := ctx.Value(tabIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldTabID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
