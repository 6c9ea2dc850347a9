package users

import (
	"github.com/goliatone/go-nestsync/internal/validation"
	nsusers "github.com/goliatone/go-nestsync/users"
)

// ConsentSchema describes the consent recording payload. The ledger is
// append-only, so the payload names a decision rather than an edit.
func ConsentSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"type": map[string]any{
				"enum": consentTypeValues(),
			},
			"version": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"granted": map[string]any{"type": "boolean"},
			"method": map[string]any{
				"enum": []any{
					nsusers.ConsentMethodSignup,
					nsusers.ConsentMethodSettings,
					nsusers.ConsentMethodAPI,
				},
			},
			"metadata": map[string]any{
				"type": []any{"object", "null"},
			},
		},
		"required":             []any{"type", "version", "granted"},
		"additionalProperties": false,
	}
}

// ValidateConsentPayload checks a raw consent body against the schema.
func ValidateConsentPayload(payload map[string]any) error {
	return validation.ValidatePayload(ConsentSchema(), payload)
}

func consentTypeValues() []any {
	types := nsusers.ConsentTypes()
	out := make([]any, 0, len(types))
	for _, consentType := range types {
		out = append(out, string(consentType))
	}
	return out
}
