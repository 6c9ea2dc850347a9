package notifications_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-nestsync/internal/notifications"
)

func TestRendererCoversAllTypes(t *testing.T) {
	renderer := notifications.MustNewRenderer()

	data := map[string]any{
		"child_name":       "Noah",
		"size":             "size_3",
		"days_of_cover":    "2.5",
		"total_remaining":  20,
		"days_left":        3,
		"plan_name":        "Premium",
		"trial_ends_at":    "June 18, 2025",
		"inviter_name":     "Sarah",
		"family_name":      "The Tremblays",
		"code":             "NEST-1234",
		"reason":           "Noah is 20 months old",
		"current_size":     "size_3",
		"recommended_size": "size_4",
		"message":          "Scheduled maintenance tonight.",
	}

	types := []notifications.NotificationType{
		notifications.TypeLowStock,
		notifications.TypeTrialEnding,
		notifications.TypeTrialExpired,
		notifications.TypePaymentFailed,
		notifications.TypeInvite,
		notifications.TypeSizeAdvisory,
		notifications.TypeSystem,
	}
	for _, kind := range types {
		title, body, err := renderer.Render(kind, data)
		if err != nil {
			t.Fatalf("render %s: %v", kind, err)
		}
		if title == "" {
			t.Fatalf("expected title for %s", kind)
		}
		if body == "" {
			t.Fatalf("expected body for %s", kind)
		}
	}
}

func TestRendererLowStock(t *testing.T) {
	renderer := notifications.MustNewRenderer()

	title, body, err := renderer.Render(notifications.TypeLowStock, map[string]any{
		"child_name":      "Noah",
		"size":            "size_3",
		"days_of_cover":   "2.5",
		"total_remaining": 20,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if title != "Running low on size_3 diapers" {
		t.Fatalf("unexpected title %q", title)
	}
	if !strings.Contains(body, "**Noah** has about **2.5 days**") {
		t.Fatalf("unexpected body %q", body)
	}
	if !strings.Contains(body, "(20 remaining)") {
		t.Fatalf("expected remaining count in body, got %q", body)
	}
}

func TestRendererUnknownType(t *testing.T) {
	renderer := notifications.MustNewRenderer()

	if _, _, err := renderer.Render(notifications.NotificationType("carrier_pigeon"), nil); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestRendererHTML(t *testing.T) {
	renderer := notifications.MustNewRenderer()

	html, err := renderer.HTML("**Noah** needs diapers")
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(html, "<strong>Noah</strong>") {
		t.Fatalf("expected markdown emphasis converted, got %q", html)
	}
}
