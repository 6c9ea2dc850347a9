package logging

import (
	"context"
	"maps"
)

type contextKey string

const contextFieldsKey contextKey = "nestsync.logging.fields"

// ContextWithFields returns a context carrying structured logging fields.
// Loggers that honor WithContext merge them into every entry. Fields already
// on the context are kept, with the new values winning on key collisions.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}

	// ContextFields hands back a private copy, so merging in place is safe.
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields extracts the logging fields annotated on the context. The
// returned map is a copy; callers can mutate it without affecting future
// log entries.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}
