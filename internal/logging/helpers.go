package logging

import (
	"maps"

	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

// WithFields attaches structured fields to a logger through the optional
// FieldsLogger extension. The map is copied before handing it to the
// provider; loggers without field support come back unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}
