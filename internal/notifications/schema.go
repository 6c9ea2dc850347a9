package notifications

import (
	"github.com/goliatone/go-nestsync/internal/validation"
)

// clockPattern matches 24 hour "HH:MM" strings.
const clockPattern = `^([01][0-9]|2[0-3]):[0-5][0-9]$`

// PreferenceSchema describes the notification preference payload accepted on
// updates. The HTTP layer validates raw bodies against it and the schema
// registry publishes it to clients.
func PreferenceSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"channels": map[string]any{
				"type":        "array",
				"items":       map[string]any{"enum": []any{"in_app", "email", "push"}},
				"uniqueItems": true,
			},
			"quiet_hours_start": map[string]any{
				"type":    []any{"string", "null"},
				"pattern": clockPattern,
			},
			"quiet_hours_end": map[string]any{
				"type":    []any{"string", "null"},
				"pattern": clockPattern,
			},
			"low_stock_threshold_days": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 30,
			},
			"size_change_alerts": map[string]any{"type": "boolean"},
			"marketing_opt_in":   map[string]any{"type": "boolean"},
			"digest":             map[string]any{"enum": []any{"immediate", "daily"}},
		},
		"additionalProperties": false,
	}
}

// ValidatePreferencePayload checks a raw preference update against the
// schema. Absent fields keep their stored value, so required is never
// enforced.
func ValidatePreferencePayload(payload map[string]any) error {
	return validation.ValidatePartialPayload(PreferenceSchema(), payload)
}
