package links_test

import (
	"testing"

	"github.com/goliatone/go-nestsync/internal/links"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/google/uuid"
)

func TestBuilderInviteURL(t *testing.T) {
	manager := urlkit.NewRouteManager(links.DefaultRouteConfig("https://app.nestsync.ca"))
	builder := links.NewBuilder(links.BuilderOptions{Manager: manager})

	url, err := builder.InviteURL("NEST-1234")
	if err != nil {
		t.Fatalf("InviteURL: %v", err)
	}
	if url != "https://app.nestsync.ca/invites/NEST-1234" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestBuilderTrimsBaseURL(t *testing.T) {
	manager := urlkit.NewRouteManager(links.DefaultRouteConfig(" https://app.nestsync.ca/ "))
	builder := links.NewBuilder(links.BuilderOptions{Manager: manager})

	url, err := builder.SubscriptionURL()
	if err != nil {
		t.Fatalf("SubscriptionURL: %v", err)
	}
	if url != "https://app.nestsync.ca/settings/billing" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestBuilderDeepLinks(t *testing.T) {
	manager := urlkit.NewRouteManager(links.DefaultRouteConfig("https://app.nestsync.ca"))
	builder := links.NewBuilder(links.BuilderOptions{Manager: manager})

	childID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	url, err := builder.ChildURL(childID)
	if err != nil {
		t.Fatalf("ChildURL: %v", err)
	}
	if url != "https://app.nestsync.ca/children/"+childID.String() {
		t.Fatalf("unexpected url %q", url)
	}

	url, err = builder.PreferencesURL()
	if err != nil {
		t.Fatalf("PreferencesURL: %v", err)
	}
	if url != "https://app.nestsync.ca/settings/notifications" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestBuilderCustomGroup(t *testing.T) {
	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    "beta",
				BaseURL: "https://beta.nestsync.ca",
				Paths: map[string]string{
					links.RouteInviteAccept: "/join/:code",
				},
			},
		},
	})
	builder := links.NewBuilder(links.BuilderOptions{Manager: manager, Group: "beta"})

	url, err := builder.InviteURL("NEST-9876")
	if err != nil {
		t.Fatalf("InviteURL: %v", err)
	}
	if url != "https://beta.nestsync.ca/join/NEST-9876" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestBuilderWithoutManager(t *testing.T) {
	builder := links.NewBuilder(links.BuilderOptions{})

	url, err := builder.InviteURL("NEST-1234")
	if err != nil {
		t.Fatalf("InviteURL: %v", err)
	}
	if url != "" {
		t.Fatalf("expected empty url, got %q", url)
	}
}

func TestBuilderUnknownGroup(t *testing.T) {
	manager := urlkit.NewRouteManager(links.DefaultRouteConfig("https://app.nestsync.ca"))
	builder := links.NewBuilder(links.BuilderOptions{Manager: manager, Group: "missing"})

	if _, err := builder.InviteURL("NEST-1234"); err == nil {
		t.Fatal("expected error for unknown route group")
	}
}
