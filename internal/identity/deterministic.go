package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PlanUUID returns the stable identifier for a seeded billing plan.
func PlanUUID(planCode string) uuid.UUID {
	return UUID("nestsync:plan:" + strings.ToLower(strings.TrimSpace(planCode)))
}

// SystemUserUUID identifies the internal actor used for scheduled jobs and
// webhook-driven mutations.
func SystemUserUUID() uuid.UUID {
	return UUID("nestsync:user:system")
}

// TemplateUUID returns the stable identifier for a notification template.
func TemplateUUID(name string) uuid.UUID {
	return UUID("nestsync:template:" + strings.ToLower(strings.TrimSpace(name)))
}

// ConsentDocumentUUID identifies a versioned policy document (privacy policy,
// terms of service) so consent records can reference it deterministically.
func ConsentDocumentUUID(consentType, version string) uuid.UUID {
	return UUID("nestsync:consent_document:" + strings.ToLower(strings.TrimSpace(consentType)) + ":" + strings.TrimSpace(version))
}
