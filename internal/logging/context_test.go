package logging

import (
	"context"
	"testing"
)

func TestContextWithFieldsMergesExistingFields(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{
		"family_id": "fam-1",
		"actor":     "caregiver",
	})
	ctx = ContextWithFields(ctx, map[string]any{
		"actor":    "system",
		"child_id": "child-9",
	})

	fields := ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 merged fields, got %v", fields)
	}
	if fields["family_id"] != "fam-1" {
		t.Fatalf("expected family_id preserved, got %v", fields["family_id"])
	}
	if fields["actor"] != "system" {
		t.Fatalf("expected later actor value to win, got %v", fields["actor"])
	}
	if fields["child_id"] != "child-9" {
		t.Fatalf("expected child_id merged in, got %v", fields["child_id"])
	}
}

func TestContextFieldsReturnsACopy(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"family_id": "fam-1"})

	mutated := ContextFields(ctx)
	mutated["family_id"] = "other"

	if got := ContextFields(ctx)["family_id"]; got != "fam-1" {
		t.Fatalf("expected stored fields unchanged after caller mutation, got %v", got)
	}
}

func TestContextWithFieldsPassthrough(t *testing.T) {
	base := context.Background()
	if got := ContextWithFields(base, nil); got != base {
		t.Fatal("expected empty fields to return the original context")
	}
	if fields := ContextFields(base); fields != nil {
		t.Fatalf("expected no fields on a plain context, got %v", fields)
	}
	if fields := ContextFields(nil); fields != nil {
		t.Fatalf("expected nil context to yield no fields, got %v", fields)
	}
}
