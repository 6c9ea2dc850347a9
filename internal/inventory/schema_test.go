package inventory_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-nestsync/internal/inventory"
	"github.com/goliatone/go-nestsync/internal/validation"
)

func TestValidateItemPayload(t *testing.T) {
	payload := map[string]any{
		"brand":              "Huggies",
		"size":               "size_3",
		"quantity_purchased": 54,
		"cost_cents":         2499,
		"purchased_at":       "2025-06-10T09:00:00Z",
	}
	if err := inventory.ValidateItemPayload(payload); err != nil {
		t.Fatalf("expected payload accepted, got %v", err)
	}

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{
			name:    "missing brand",
			payload: map[string]any{"quantity_purchased": 10},
		},
		{
			name:    "zero quantity",
			payload: map[string]any{"brand": "Huggies", "quantity_purchased": 0},
		},
		{
			name:    "negative cost",
			payload: map[string]any{"brand": "Huggies", "quantity_purchased": 10, "cost_cents": -1},
		},
		{
			name:    "unknown size",
			payload: map[string]any{"brand": "Huggies", "quantity_purchased": 10, "size": "size_9"},
		},
		{
			name:    "unknown field",
			payload: map[string]any{"brand": "Huggies", "quantity_purchased": 10, "store": "Costco"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := inventory.ValidateItemPayload(tc.payload)
			if !errors.Is(err, validation.ErrSchemaValidation) {
				t.Fatalf("expected schema validation error, got %v", err)
			}
		})
	}
}

func TestValidateUsagePayload(t *testing.T) {
	payload := map[string]any{
		"item_id":     "11111111-1111-1111-1111-111111111111",
		"kind":        "soiled",
		"notes":       "overnight",
		"occurred_at": "2025-06-10T07:30:00Z",
	}
	if err := inventory.ValidateUsagePayload(payload); err != nil {
		t.Fatalf("expected payload accepted, got %v", err)
	}

	if err := inventory.ValidateUsagePayload(map[string]any{}); err != nil {
		t.Fatalf("expected empty payload accepted, got %v", err)
	}

	err := inventory.ValidateUsagePayload(map[string]any{"kind": "damp"})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}
