package identity_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-nestsync/internal/identity"
)

func TestUUIDIsDeterministic(t *testing.T) {
	first := identity.UUID("nestsync:plan:standard")
	second := identity.UUID("nestsync:plan:standard")

	if first == uuid.Nil {
		t.Fatal("expected non-nil uuid")
	}
	if first != second {
		t.Fatalf("expected stable uuid, got %s and %s", first, second)
	}
}

func TestUUIDEmptyKeyReturnsNil(t *testing.T) {
	if got := identity.UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}

func TestPlanUUIDNormalizesCode(t *testing.T) {
	if identity.PlanUUID("Standard") != identity.PlanUUID("  standard ") {
		t.Fatal("expected plan uuid to normalize case and whitespace")
	}
	if identity.PlanUUID("standard") == identity.PlanUUID("premium") {
		t.Fatal("expected distinct plans to produce distinct ids")
	}
}

func TestEntityNamespacesDoNotCollide(t *testing.T) {
	plan := identity.PlanUUID("system")
	user := identity.SystemUserUUID()
	template := identity.TemplateUUID("system")

	if plan == user || plan == template || user == template {
		t.Fatalf("expected distinct namespaces, got plan=%s user=%s template=%s", plan, user, template)
	}
}

func TestConsentDocumentUUIDVersions(t *testing.T) {
	v1 := identity.ConsentDocumentUUID("privacy_policy", "2025-01")
	v2 := identity.ConsentDocumentUUID("privacy_policy", "2025-06")
	if v1 == v2 {
		t.Fatal("expected distinct versions to produce distinct ids")
	}
}
