package inventory

import (
	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/internal/validation"
)

// ItemSchema describes the add-item payload accepted when recording a diaper
// purchase. The schema registry publishes it to clients.
func ItemSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"brand": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"size": map[string]any{
				"enum": diaperSizeValues(),
			},
			"quantity_purchased": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"cost_cents": map[string]any{
				"type":    []any{"integer", "null"},
				"minimum": 0,
			},
			"purchased_at": map[string]any{
				"type":   []any{"string", "null"},
				"format": "date-time",
			},
		},
		"required":             []any{"brand", "quantity_purchased"},
		"additionalProperties": false,
	}
}

// UsageSchema describes the usage logging payload. Kind defaults to wet and
// occurred_at to now, so nothing is required.
func UsageSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"item_id": map[string]any{
				"type":   []any{"string", "null"},
				"format": "uuid",
			},
			"kind": map[string]any{
				"enum": []any{"wet", "soiled", "both", "dry"},
			},
			"notes": map[string]any{
				"type": []any{"string", "null"},
			},
			"occurred_at": map[string]any{
				"type":   []any{"string", "null"},
				"format": "date-time",
			},
		},
		"additionalProperties": false,
	}
}

// ValidateItemPayload checks a raw add-item body against the schema.
func ValidateItemPayload(payload map[string]any) error {
	return validation.ValidatePayload(ItemSchema(), payload)
}

// ValidateUsagePayload checks a raw usage body against the schema.
func ValidateUsagePayload(payload map[string]any) error {
	return validation.ValidatePayload(UsageSchema(), payload)
}

func diaperSizeValues() []any {
	sizes := domain.DiaperSizes()
	out := make([]any, 0, len(sizes))
	for _, size := range sizes {
		out = append(out, string(size))
	}
	return out
}
