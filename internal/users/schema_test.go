package users_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-nestsync/internal/users"
	"github.com/goliatone/go-nestsync/internal/validation"
)

func TestValidateConsentPayload(t *testing.T) {
	payload := map[string]any{
		"type":    "marketing_emails",
		"version": "2025-01",
		"granted": true,
		"method":  "settings",
		"metadata": map[string]any{
			"ip": "203.0.113.7",
		},
	}
	if err := users.ValidateConsentPayload(payload); err != nil {
		t.Fatalf("expected payload accepted, got %v", err)
	}

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{
			name:    "missing version",
			payload: map[string]any{"type": "analytics", "granted": true},
		},
		{
			name:    "unknown type",
			payload: map[string]any{"type": "cookies", "version": "1", "granted": true},
		},
		{
			name:    "unknown method",
			payload: map[string]any{"type": "analytics", "version": "1", "granted": true, "method": "phone"},
		},
		{
			name:    "unknown field",
			payload: map[string]any{"type": "analytics", "version": "1", "granted": true, "witness": "Marc"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := users.ValidateConsentPayload(tc.payload)
			if !errors.Is(err, validation.ErrSchemaValidation) {
				t.Fatalf("expected schema validation error, got %v", err)
			}
		})
	}
}
